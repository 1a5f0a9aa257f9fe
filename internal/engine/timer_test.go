package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalTimerSingleFlight(t *testing.T) {
	tm := newIntervalTimer(time.Hour, func() {})
	defer tm.Stop()
	if !tm.Start() {
		t.Fatalf("first Start returned false")
	}
	if tm.Start() {
		t.Fatalf("second Start returned true while active")
	}
	if !tm.Active() {
		t.Fatalf("Active = false while armed")
	}
}

func TestIntervalTimerStopIdle(t *testing.T) {
	tm := newIntervalTimer(time.Hour, func() {})
	tm.Stop()
	tm.Stop()
	if tm.Active() {
		t.Fatalf("Active = true after Stop")
	}
}

func TestIntervalTimerFires(t *testing.T) {
	var n atomic.Int64
	tm := newIntervalTimer(5*time.Millisecond, func() { n.Add(1) })
	tm.Start()
	defer tm.Stop()
	waitFor(t, func() bool { return n.Load() >= 3 }, "three ticks")
}

func TestIntervalTimerStopPreventsFurtherTicks(t *testing.T) {
	var n atomic.Int64
	tm := newIntervalTimer(5*time.Millisecond, func() { n.Add(1) })
	tm.Start()
	waitFor(t, func() bool { return n.Load() >= 1 }, "first tick")
	tm.Stop()
	got := n.Load()
	time.Sleep(30 * time.Millisecond)
	if after := n.Load(); after > got+1 {
		t.Fatalf("ticks kept firing after Stop: %d -> %d", got, after)
	}
}

func TestIntervalTimerRestarts(t *testing.T) {
	var n atomic.Int64
	tm := newIntervalTimer(5*time.Millisecond, func() { n.Add(1) })
	tm.Start()
	waitFor(t, func() bool { return n.Load() >= 1 }, "first run tick")
	tm.Stop()
	base := n.Load() + 1 // allow one in-flight tick
	if !tm.Start() {
		t.Fatalf("restart returned false")
	}
	defer tm.Stop()
	waitFor(t, func() bool { return n.Load() > base }, "tick after restart")
}
