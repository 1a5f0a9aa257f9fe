package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeBackend is a scriptable in-memory generation service.
type fakeBackend struct {
	mu           sync.Mutex
	submitRes    SubmitResult
	submitErr    error
	lastSubmit   SubmitRequest
	submitCalls  int
	listRes      []RemoteGeneration
	listErr      error
	listCalls    int
	balance      float64
	balanceErr   error
	balanceCalls int
	trial        bool
	// gate, when set, blocks SubmitGeneration until closed.
	gate chan struct{}
}

func (f *fakeBackend) SubmitGeneration(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	f.mu.Lock()
	f.submitCalls++
	f.lastSubmit = req
	gate := f.gate
	res, err := f.submitRes, f.submitErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return SubmitResult{}, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeBackend) ListGenerations(ctx context.Context, userID string, limit int) ([]RemoteGeneration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]RemoteGeneration, len(f.listRes))
	copy(out, f.listRes)
	return out, nil
}

func (f *fakeBackend) GetBalance(ctx context.Context, userID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeBackend) GetTrialStatus(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trial, nil
}

func (f *fakeBackend) setList(items ...RemoteGeneration) {
	f.mu.Lock()
	f.listRes = items
	f.listErr = nil
	f.mu.Unlock()
}

func (f *fakeBackend) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeBackend) balanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls
}

func (f *fakeBackend) lastRequest() SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSubmit
}

// memPreviews tracks preview handle creation and revocation counts.
type memPreviews struct {
	mu      sync.Mutex
	seq     int
	revokes map[string]int
}

func newMemPreviews() *memPreviews { return &memPreviews{revokes: map[string]int{}} }

func (p *memPreviews) Create(name string, r io.Reader) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return fmt.Sprintf("mem://%d/%s", p.seq, name), nil
}

func (p *memPreviews) Revoke(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokes[url]++
	return nil
}

func (p *memPreviews) created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

func (p *memPreviews) totalRevokes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.revokes {
		n += c
	}
	return n
}

func (p *memPreviews) revokeCount(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revokes[url]
}

// apiErr mimics the backend client's status-coded error.
type apiErr struct {
	code   int
	detail string
}

func (e *apiErr) Error() string {
	if e.detail != "" {
		return e.detail
	}
	return fmt.Sprintf("backend: unexpected status %d", e.code)
}

func (e *apiErr) StatusCode() int { return e.code }

// pngBytes is a minimal buffer carrying the PNG signature.
func pngBytes() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)
}

func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
}

// newTestEngine builds a started engine with fast timers and test fakes.
func newTestEngine(t *testing.T, fb *fakeBackend, opts ...func(*EngineConfig)) (*Engine, *memPreviews, *MemoryPublisher) {
	t.Helper()
	previews := newMemPreviews()
	pub := NewMemoryPublisher()
	cfg := EngineConfig{
		Backend:      fb,
		Previews:     previews,
		UserID:       "u1",
		Settings:     Settings{Model: "banana-v1", Ratio: "1:1", Quality: "standard"},
		PollInterval: 10 * time.Millisecond,
		ToastTTL:     time.Minute,
		Logger:       zerolog.Nop(),
		Publisher:    pub,
	}
	for _, o := range opts {
		o(&cfg)
	}
	e := NewWithConfig(cfg)
	if err := e.Start(testCtx(t)); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e, previews, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func countEvents(pub *MemoryPublisher, name string) int {
	n := 0
	for _, ev := range pub.Events() {
		if ev.Name == name {
			n++
		}
	}
	return n
}
