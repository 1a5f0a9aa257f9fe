package engine

import (
	"testing"
	"time"
)

func TestNewWithConfigDefaults(t *testing.T) {
	e := NewWithConfig(EngineConfig{Backend: &fakeBackend{}})
	if e.toastTTL != defaultToastTTL {
		t.Fatalf("toastTTL = %v, want %v", e.toastTTL, defaultToastTTL)
	}
	if e.maxAttachments != defaultMaxAttachments {
		t.Fatalf("maxAttachments = %d, want %d", e.maxAttachments, defaultMaxAttachments)
	}
	if e.maxFileBytes != defaultMaxFileBytes {
		t.Fatalf("maxFileBytes = %d, want %d", e.maxFileBytes, defaultMaxFileBytes)
	}
	if e.feedLimit != defaultFeedLimit {
		t.Fatalf("feedLimit = %d, want %d", e.feedLimit, defaultFeedLimit)
	}
	if e.poll.interval != defaultPollInterval {
		t.Fatalf("poll interval = %v, want %v", e.poll.interval, defaultPollInterval)
	}
}

func TestStartSeedsFeedAndBalance(t *testing.T) {
	fb := &fakeBackend{balance: 12.5, trial: true}
	fb.setList(
		RemoteGeneration{PublicID: "g1", Status: "completed", ResultURLs: []string{"https://cdn/a.png"}},
		RemoteGeneration{PublicID: "g2", Status: "running"},
		RemoteGeneration{PublicID: "g3", Status: "failed", ErrorMessage: "out of capacity"},
	)
	e, _, _ := newTestEngine(t, fb)

	recs := e.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0].ID != "g1" || recs[0].Status != StatusDone || recs[0].ResultURL != "https://cdn/a.png" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Status != StatusGenerating {
		t.Fatalf("g2 status = %q, want generating", recs[1].Status)
	}
	if recs[2].Status != StatusError || recs[2].ErrorMessage != "out of capacity" {
		t.Fatalf("unexpected failed record: %+v", recs[2])
	}
	snap := e.Snapshot()
	if snap.Balance != 12.5 {
		t.Fatalf("balance = %v, want 12.5", snap.Balance)
	}
	if !snap.TrialAvailable {
		t.Fatalf("expected trial available")
	}
	// g2 is still in flight, so the reconciliation loop must be armed.
	if !e.PollActive() {
		t.Fatalf("expected poller to be armed after start")
	}
}

func TestStartWithoutGeneratingLeavesPollerIdle(t *testing.T) {
	fb := &fakeBackend{}
	fb.setList(RemoteGeneration{PublicID: "g1", Status: "completed"})
	e, _, _ := newTestEngine(t, fb)
	if e.PollActive() {
		t.Fatalf("poller armed with nothing generating")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	fb := &fakeBackend{}
	fb.setList(RemoteGeneration{PublicID: "g1", Status: "completed"})
	e, _, _ := newTestEngine(t, fb)

	snap := e.Snapshot()
	snap.Records[0].ID = "mutated"
	snap.Prompt = "mutated"

	again := e.Snapshot()
	if again.Records[0].ID != "g1" {
		t.Fatalf("internal record mutated through snapshot: %q", again.Records[0].ID)
	}
	if again.Prompt != "" {
		t.Fatalf("prompt mutated through snapshot: %q", again.Prompt)
	}
}

func TestSetSettingsKeepsUnsetFields(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeBackend{})
	e.SetSettings(Settings{Ratio: "16:9"})
	got := e.Snapshot().Settings
	if got.Model != "banana-v1" || got.Ratio != "16:9" || got.Quality != "standard" {
		t.Fatalf("settings = %+v", got)
	}
}

func TestDisposeRevokesPreviewsAndStopsEverything(t *testing.T) {
	fb := &fakeBackend{}
	e, previews, pub := newTestEngine(t, fb)
	att, err := e.AddAttachment("a.png", pngBytes())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !e.Ready() {
		t.Fatalf("expected ready before dispose")
	}

	e.Dispose()
	e.Dispose() // idempotent

	if e.Ready() {
		t.Fatalf("ready after dispose")
	}
	if got := previews.revokeCount(att.URL); got != 1 {
		t.Fatalf("preview revoked %d times, want 1", got)
	}
	if e.PollActive() {
		t.Fatalf("poller still active after dispose")
	}
	if n := countEvents(pub, "engine_disposed"); n != 1 {
		t.Fatalf("engine_disposed published %d times, want 1", n)
	}
}

func TestSubmitAfterDisposeIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeBackend{})
	e.Dispose()
	e.SetPrompt("a banana")
	if id := e.Submit(testCtx(t)); id != "" {
		t.Fatalf("submit after dispose returned %q", id)
	}
}

func TestPushToastAfterDisposeIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeBackend{})
	e.Dispose()
	if id := e.PushToast("late", ToastInfo, time.Minute); id != "" {
		t.Fatalf("toast pushed after dispose: %q", id)
	}
}
