package engine

import (
	"sync"
	"time"
)

// intervalTimer runs fn on a fixed interval in a single goroutine.
// Start while active is a no-op, which gives the poll loop its single-flight
// guarantee; Stop cancels the goroutine and is safe to call when idle.
type intervalTimer struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	stop     chan struct{}
}

func newIntervalTimer(interval time.Duration, fn func()) *intervalTimer {
	return &intervalTimer{interval: interval, fn: fn}
}

// Start arms the timer. Returns false if it was already active.
func (t *intervalTimer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return false
	}
	stop := make(chan struct{})
	t.stop = stop
	go func() {
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				t.fn()
			}
		}
	}()
	return true
}

// Stop disarms the timer. No tick fires after Stop returns, except a tick
// already executing in fn.
func (t *intervalTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

// Active reports whether the timer is currently armed.
func (t *intervalTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
