package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	msgInsufficientBalance = "Insufficient balance. Top up to keep generating."
	msgSubmitFailed        = "Generation failed to start. Please try again."
)

// Submit creates an optimistic record from the composer state and starts the
// asynchronous backend submission. Returns the record id, or "" when the
// composer was empty (prompt blank and no attachments) and nothing happened.
// The record is visible in the registry before the network call begins.
func (e *Engine) Submit(ctx context.Context) string {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ""
	}
	prompt := strings.TrimSpace(e.prompt)
	if prompt == "" && len(e.pending) == 0 {
		e.mu.Unlock()
		return ""
	}
	atts := make([]Attachment, len(e.pending))
	copy(atts, e.pending)
	mode := ModeTextToImage
	if len(atts) > 0 {
		mode = ModeImageToImage
	}
	rec := GenerationRecord{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		Mode:        mode,
		Prompt:      prompt,
		Attachments: atts,
		Model:       e.settings.Model,
		Ratio:       e.settings.Ratio,
		Quality:     e.settings.Quality,
		Status:      StatusGenerating,
	}
	e.records = append([]GenerationRecord{rec}, e.records...)
	// Composer resets synchronously; preview ownership moves to the record
	// snapshot, so nothing is revoked here.
	e.detachPendingLocked(false)
	e.prompt = ""
	e.inFlight[rec.ID] = struct{}{}
	e.sending++
	req := e.buildRequestLocked(rec)
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	submissionsTotal.WithLabelValues(string(mode)).Inc()
	e.publisher.Publish(Event{Name: "submit_start", RecordID: rec.ID, Fields: map[string]any{"mode": string(mode)}})
	go e.runSubmit(ctx, rec.ID, req)
	return rec.ID
}

// Retry re-submits a failed record under its current id. Valid only while
// the record is in error and has no submission outstanding.
func (e *Engine) Retry(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrRecordNotFound(id)
	}
	idx := e.indexByIDLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrRecordNotFound(id)
	}
	rec := e.records[idx]
	if rec.Status != StatusError {
		e.mu.Unlock()
		return invalidStateError{id: id, have: rec.Status}
	}
	if _, busy := e.inFlight[id]; busy {
		e.mu.Unlock()
		return invalidStateError{id: id, have: rec.Status}
	}
	rec.Status = StatusGenerating
	rec.ErrorMessage = ""
	e.records[idx] = rec
	e.inFlight[id] = struct{}{}
	e.sending++
	req := e.buildRequestLocked(rec)
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	submissionsTotal.WithLabelValues(string(rec.Mode)).Inc()
	e.publisher.Publish(Event{Name: "retry_start", RecordID: id})
	go e.runSubmit(ctx, id, req)
	return nil
}

func (e *Engine) buildRequestLocked(rec GenerationRecord) SubmitRequest {
	req := SubmitRequest{
		UserID:  e.userID,
		ModelID: rec.Model,
		Prompt:  rec.Prompt,
		Ratio:   rec.Ratio,
		Quality: rec.Quality,
	}
	for _, a := range rec.Attachments {
		req.ReferenceURLs = append(req.ReferenceURLs, a.URL)
	}
	return req
}

// runSubmit performs the network half of Submit/Retry and reconciles the
// optimistic record with the outcome. Every path ends in a state update; no
// error escapes this goroutine.
func (e *Engine) runSubmit(ctx context.Context, id string, req SubmitRequest) {
	res, err := e.backend.SubmitGeneration(ctx, req)

	e.mu.Lock()
	delete(e.inFlight, id)
	if e.sending > 0 {
		e.sending--
	}
	idx := e.indexByIDLocked(id)
	if idx < 0 {
		// Record was deleted while the call was in flight; drop the result.
		e.mu.Unlock()
		e.kickPoller()
		return
	}
	rec := e.records[idx]
	if err != nil {
		rec.Status = StatusError
		rec.ErrorMessage = classifySubmitError(err)
		e.records[idx] = rec
		e.pushToastLocked(rec.ErrorMessage, ToastError, 0)
		generatingGauge.Set(float64(e.countGeneratingLocked()))
		e.mu.Unlock()
		submitErrorsTotal.Inc()
		e.log.Warn().Err(err).Str("record", id).Msg("submit failed")
		e.publisher.Publish(Event{Name: "submit_error", RecordID: id})
		e.kickPoller()
		return
	}
	// Server identity replaces the local id; the local one is retired.
	if res.PublicID != "" {
		rec.ID = res.PublicID
	} else if res.ID != "" {
		rec.ID = res.ID
	}
	rec.Status = MapStatus(res.Status)
	e.records[idx] = rec
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	e.publisher.Publish(Event{Name: "submit_reconciled", RecordID: rec.ID, Fields: map[string]any{"local_id": id}})
	e.kickPoller()
}

// classifySubmitError maps a submission failure onto a user-facing message:
// 402 means insufficient balance, a backend detail is surfaced as-is, and
// anything else (network, timeouts) gets the generic fallback.
func classifySubmitError(err error) string {
	var he httpError
	if errors.As(err, &he) {
		if he.StatusCode() == http.StatusPaymentRequired {
			return msgInsufficientBalance
		}
		if msg := strings.TrimSpace(he.Error()); msg != "" {
			return msg
		}
	}
	return msgSubmitFailed
}
