package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding EngineConfig fields are unset.
const (
	defaultPollInterval   = 3 * time.Second
	defaultToastTTL       = 3 * time.Second
	defaultMaxAttachments = 3
	defaultMaxFileBytes   = 20 << 20 // 20 MB
	defaultFeedLimit      = 50
)

// EngineConfig encapsulates all tunables for Engine construction.
type EngineConfig struct {
	Backend  Backend
	Previews PreviewStore
	UserID   string
	Settings Settings

	PollInterval   time.Duration
	ToastTTL       time.Duration
	MaxAttachments int
	MaxFileBytes   int64
	FeedLimit      int

	Logger    zerolog.Logger
	Publisher EventPublisher
}

// Engine is the generation lifecycle and reconciliation engine: registry,
// composer, poller and notification queue behind one mutex. The only
// suspension points are backend calls, which run outside the lock; every
// mutation between them is atomic from a reader's perspective.
type Engine struct {
	mu      sync.Mutex
	records []GenerationRecord
	pending []Attachment
	prompt  string
	toasts  []Toast

	settings       Settings
	balance        float64
	trialAvailable bool

	// inFlight holds record ids with a submit call outstanding; it enforces
	// the one-writer rule for status transitions into generating.
	inFlight    map[string]struct{}
	sending     int
	previewRefs map[string]struct{}
	toastTimers map[string]*time.Timer

	backend   Backend
	previews  PreviewStore
	publisher EventPublisher
	log       zerolog.Logger

	userID    string
	feedLimit int
	toastTTL  time.Duration

	maxAttachments int
	maxFileBytes   int64

	poll     *intervalTimer
	started  bool
	disposed bool
}

// NewWithConfig constructs an Engine from EngineConfig.
func NewWithConfig(cfg EngineConfig) *Engine {
	e := &Engine{
		backend:        cfg.Backend,
		previews:       cfg.Previews,
		userID:         cfg.UserID,
		settings:       cfg.Settings,
		inFlight:       make(map[string]struct{}),
		previewRefs:    make(map[string]struct{}),
		toastTimers:    make(map[string]*time.Timer),
		publisher:      cfg.Publisher,
		log:            cfg.Logger,
		toastTTL:       cfg.ToastTTL,
		maxAttachments: cfg.MaxAttachments,
		maxFileBytes:   cfg.MaxFileBytes,
		feedLimit:      cfg.FeedLimit,
	}
	// Apply defaults if unset
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if e.toastTTL <= 0 {
		e.toastTTL = defaultToastTTL
	}
	if e.maxAttachments <= 0 {
		e.maxAttachments = defaultMaxAttachments
	}
	if e.maxFileBytes <= 0 {
		e.maxFileBytes = defaultMaxFileBytes
	}
	if e.feedLimit <= 0 {
		e.feedLimit = defaultFeedLimit
	}
	if e.publisher == nil {
		e.publisher = noopPublisher{}
	}
	if e.previews == nil {
		e.previews = discardPreviewStore{}
	}
	e.poll = newIntervalTimer(interval, e.pollTick)
	return e
}

// Start loads the initial feed plus balance/trial status and arms the poller
// when any loaded record is still in flight. It must be called once.
func (e *Engine) Start(ctx context.Context) error {
	items, err := e.backend.ListGenerations(ctx, e.userID, e.feedLimit)
	if err != nil {
		return err
	}
	now := time.Now()
	recs := make([]GenerationRecord, 0, len(items))
	for _, it := range items {
		st := MapStatus(it.Status)
		rec := GenerationRecord{
			ID:        it.PublicID,
			CreatedAt: now,
			Mode:      ModeTextToImage,
			Model:     e.settings.Model,
			Ratio:     e.settings.Ratio,
			Quality:   e.settings.Quality,
			Status:    st,
		}
		if len(it.ResultURLs) > 0 {
			rec.ResultURL = it.ResultURLs[0]
		}
		if st == StatusError {
			rec.ErrorMessage = it.ErrorMessage
		}
		recs = append(recs, rec)
	}
	e.mu.Lock()
	e.records = recs
	e.started = true
	generatingGauge.Set(float64(e.countGeneratingLocked()))
	e.mu.Unlock()

	if bal, err := e.backend.GetBalance(ctx, e.userID); err != nil {
		e.log.Warn().Err(err).Msg("initial balance fetch failed")
	} else {
		e.mu.Lock()
		e.balance = bal
		e.mu.Unlock()
	}
	if trial, err := e.backend.GetTrialStatus(ctx, e.userID); err != nil {
		e.log.Warn().Err(err).Msg("trial status fetch failed")
	} else {
		e.mu.Lock()
		e.trialAvailable = trial
		e.mu.Unlock()
	}

	e.kickPoller()
	return nil
}

// Ready reports whether the engine finished its initial load.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && !e.disposed
}

// Dispose tears the engine down: the poll timer stops, pending toast
// expirers are cancelled and every live preview handle is revoked. No timer
// fires after Dispose returns.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	for id, tm := range e.toastTimers {
		tm.Stop()
		delete(e.toastTimers, id)
	}
	refs := make([]string, 0, len(e.previewRefs))
	for url := range e.previewRefs {
		refs = append(refs, url)
	}
	e.previewRefs = make(map[string]struct{})
	e.mu.Unlock()

	e.poll.Stop()
	for _, url := range refs {
		if err := e.previews.Revoke(url); err != nil {
			e.log.Warn().Err(err).Str("url", url).Msg("preview revoke on dispose failed")
		}
	}
	e.publisher.Publish(Event{Name: "engine_disposed"})
}

// Snapshot returns an atomic read-only copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		Records:        make([]GenerationRecord, len(e.records)),
		Pending:        make([]Attachment, len(e.pending)),
		Toasts:         make([]Toast, len(e.toasts)),
		Prompt:         e.prompt,
		IsSending:      e.sending > 0,
		Balance:        e.balance,
		TrialAvailable: e.trialAvailable,
		Settings:       e.settings,
	}
	copy(snap.Records, e.records)
	copy(snap.Pending, e.pending)
	copy(snap.Toasts, e.toasts)
	return snap
}

// SetPrompt replaces the composer prompt.
func (e *Engine) SetPrompt(p string) {
	e.mu.Lock()
	e.prompt = p
	e.mu.Unlock()
}

// SetSettings replaces the active generation settings. Empty fields keep
// their current value.
func (e *Engine) SetSettings(s Settings) {
	e.mu.Lock()
	if s.Model != "" {
		e.settings.Model = s.Model
	}
	if s.Ratio != "" {
		e.settings.Ratio = s.Ratio
	}
	if s.Quality != "" {
		e.settings.Quality = s.Quality
	}
	e.mu.Unlock()
}

// Balance returns the last known account balance.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

func (e *Engine) countGeneratingLocked() int {
	n := 0
	for i := range e.records {
		if e.records[i].Status == StatusGenerating {
			n++
		}
	}
	return n
}

func (e *Engine) hasGeneratingLocked() bool { return e.countGeneratingLocked() > 0 }

func (e *Engine) indexByIDLocked(id string) int {
	for i := range e.records {
		if e.records[i].ID == id {
			return i
		}
	}
	return -1
}

// discardPreviewStore is used when no preview store is configured; it hands
// out opaque handles that need no cleanup.
type discardPreviewStore struct{}

func (discardPreviewStore) Create(name string, r io.Reader) (string, error) {
	return "discard://" + name, nil
}

func (discardPreviewStore) Revoke(string) error { return nil }
