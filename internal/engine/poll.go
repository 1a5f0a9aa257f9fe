package engine

import (
	"context"
	"time"
)

const pollCallTimeout = 10 * time.Second

const msgGenerationDone = "Your image is ready."

// kickPoller arms the reconciliation loop if at least one record is
// generating. Calling it while the loop is active is a no-op: at most one
// timer exists at any time.
func (e *Engine) kickPoller() {
	e.mu.Lock()
	want := e.started && !e.disposed && e.hasGeneratingLocked()
	e.mu.Unlock()
	if !want {
		return
	}
	if e.poll.Start() {
		e.publisher.Publish(Event{Name: "poll_start"})
		e.log.Debug().Msg("poll loop started")
	}
}

func (e *Engine) stopPoller() {
	e.poll.Stop()
	e.publisher.Publish(Event{Name: "poll_stop"})
	e.log.Debug().Msg("poll loop stopped")
}

// pollTick is one reconciliation pass: fetch current statuses for all
// outstanding generations and merge them into the registry. A failed fetch
// is logged and swallowed; the next tick retries.
func (e *Engine) pollTick() {
	e.mu.Lock()
	if e.disposed || !e.hasGeneratingLocked() {
		e.mu.Unlock()
		e.stopPoller()
		// A submit may have landed between the observation and the stop.
		e.kickPoller()
		return
	}
	userID := e.userID
	limit := e.feedLimit
	e.mu.Unlock()

	pollTicksTotal.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), pollCallTimeout)
	defer cancel()
	items, err := e.backend.ListGenerations(ctx, userID, limit)
	if err != nil {
		pollTickErrorsTotal.Inc()
		e.log.Warn().Err(err).Msg("poll tick failed")
		return
	}
	e.mergeRemote(items)
}

// mergeRemote folds backend-reported statuses into matching local records.
// The merge is monotonic-aware: a record that reached done never regresses,
// a record in error only leaves it through retry or a terminal remote state,
// and a record is only rewritten when the mapped status or result actually
// differs. When the generating set drains to empty as a result of the merge,
// the loop stops and a one-time balance refresh runs.
func (e *Engine) mergeRemote(items []RemoteGeneration) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	before := e.hasGeneratingLocked()
	for _, it := range items {
		idx := e.indexByIDLocked(it.PublicID)
		if idx < 0 {
			continue
		}
		rec := e.records[idx]
		if rec.Status == StatusDone {
			continue
		}
		if _, busy := e.inFlight[rec.ID]; busy {
			// A submit owns this record's status until it reconciles.
			continue
		}
		mapped := MapStatus(it.Status)
		if rec.Status == StatusError && mapped != StatusDone && mapped != StatusError {
			// A stale listing never revives a failed record; leaving error
			// takes an explicit retry.
			continue
		}
		result := rec.ResultURL
		if len(it.ResultURLs) > 0 {
			result = it.ResultURLs[0]
		}
		if mapped == rec.Status && result == rec.ResultURL {
			continue
		}
		rec.Status = mapped
		rec.ResultURL = result
		switch mapped {
		case StatusDone:
			rec.ErrorMessage = ""
			e.pushToastLocked(msgGenerationDone, ToastSuccess, 0)
			e.publisher.Publish(Event{Name: "record_done", RecordID: rec.ID})
		case StatusError:
			rec.ErrorMessage = it.ErrorMessage
			if rec.ErrorMessage == "" {
				rec.ErrorMessage = msgSubmitFailed
			}
			e.pushToastLocked(rec.ErrorMessage, ToastError, 0)
			e.publisher.Publish(Event{Name: "record_failed", RecordID: rec.ID})
		}
		e.records[idx] = rec
	}
	after := e.hasGeneratingLocked()
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	if before && !after {
		e.stopPoller()
		// A submit may have inserted a fresh generating record between the
		// drained observation and the stop; re-check and re-arm.
		e.kickPoller()
		// Completed generations may have deducted funds.
		go e.refreshBalance()
	}
}

func (e *Engine) refreshBalance() {
	ctx, cancel := context.WithTimeout(context.Background(), pollCallTimeout)
	defer cancel()
	bal, err := e.backend.GetBalance(ctx, e.userID)
	if err != nil {
		e.log.Warn().Err(err).Msg("balance refresh failed")
		return
	}
	e.mu.Lock()
	e.balance = bal
	e.mu.Unlock()
	e.publisher.Publish(Event{Name: "balance_refreshed", Fields: map[string]any{"balance": bal}})
}

// PollActive reports whether the reconciliation loop is currently armed.
func (e *Engine) PollActive() bool { return e.poll.Active() }
