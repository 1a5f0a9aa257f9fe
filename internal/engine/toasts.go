package engine

import (
	"time"

	"github.com/google/uuid"
)

// PushToast appends a notification and schedules its automatic removal.
// A non-positive duration uses the configured default. Returns the toast id.
func (e *Engine) PushToast(message string, typ ToastType, duration time.Duration) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pushToastLocked(message, typ, duration)
}

func (e *Engine) pushToastLocked(message string, typ ToastType, duration time.Duration) string {
	if e.disposed {
		return ""
	}
	if duration <= 0 {
		duration = e.toastTTL
	}
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
	e.toasts = append(e.toasts, t)
	e.toastTimers[t.ID] = time.AfterFunc(duration, func() { e.DismissToast(t.ID) })
	toastsTotal.WithLabelValues(string(typ)).Inc()
	return t.ID
}

// DismissToast removes a toast early. Safe to call after the automatic
// expiry already fired; dismissing an unknown id is a no-op.
func (e *Engine) DismissToast(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := -1
	for i := range e.toasts {
		if e.toasts[i].ID == id {
			idx = i
			break
		}
	}
	if tm, ok := e.toastTimers[id]; ok {
		tm.Stop()
		delete(e.toastTimers, id)
	}
	if idx < 0 {
		return
	}
	e.toasts = append(e.toasts[:idx], e.toasts[idx+1:]...)
}

// Toasts returns the visible notifications in insertion order.
func (e *Engine) Toasts() []Toast {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Toast, len(e.toasts))
	copy(out, e.toasts)
	return out
}
