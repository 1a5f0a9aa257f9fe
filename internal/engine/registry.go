package engine

// Records returns a copy of the registry, newest first.
func (e *Engine) Records() []GenerationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	// return a shallow copy to avoid external mutation
	out := make([]GenerationRecord, len(e.records))
	copy(out, e.records)
	return out
}

// DeleteRecord removes a record and releases any preview handles captured in
// its attachment snapshot. Releasing is exactly-once even when the same
// handle was already let go through another path.
func (e *Engine) DeleteRecord(id string) error {
	e.mu.Lock()
	idx := e.indexByIDLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrRecordNotFound(id)
	}
	rec := e.records[idx]
	e.records = append(e.records[:idx], e.records[idx+1:]...)
	// A submit still in flight for this id will find the record gone and
	// drop its result.
	var refs []string
	for _, a := range rec.Attachments {
		if !a.Local {
			continue
		}
		if _, live := e.previewRefs[a.URL]; live {
			delete(e.previewRefs, a.URL)
			refs = append(refs, a.URL)
		}
	}
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	for _, url := range refs {
		if err := e.previews.Revoke(url); err != nil {
			e.log.Warn().Err(err).Str("url", url).Msg("preview revoke failed")
		}
	}
	e.publisher.Publish(Event{Name: "record_deleted", RecordID: id})
	return nil
}

// ToggleLike flips the local-only liked annotation on a record.
func (e *Engine) ToggleLike(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.indexByIDLocked(id)
	if idx < 0 {
		return ErrRecordNotFound(id)
	}
	rec := e.records[idx]
	rec.Liked = !rec.Liked
	e.records[idx] = rec
	return nil
}
