package engine

import "time"

// Status represents the lifecycle state of a generation record.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Mode distinguishes text-to-image from image-to-image generations.
// Derived from whether attachments were present at submission time.
type Mode string

const (
	ModeTextToImage  Mode = "text-to-image"
	ModeImageToImage Mode = "image-to-image"
)

// Attachment is one reference image in the composer or in a record snapshot.
type Attachment struct {
	ID   string
	URL  string
	Name string
	Size int64
	// Local marks URLs that are session-scoped preview handles and must be
	// revoked exactly once when their owner lets go of them.
	Local bool
}

// GenerationRecord is one entry in the feed. Records are replaced whole,
// keyed by ID; no caller mutates fields in place.
type GenerationRecord struct {
	// ID is locally generated at optimistic creation and swapped for the
	// server-assigned public id once the submission is reconciled. Exactly
	// one identity is active at any time.
	ID        string
	CreatedAt time.Time
	Mode      Mode
	Prompt    string
	// Attachments is a snapshot taken at submission time, decoupled from
	// the live composer list.
	Attachments  []Attachment
	ResultURL    string
	Model        string
	Ratio        string
	Quality      string
	Liked        bool
	Status       Status
	ErrorMessage string
}

// ToastType classifies a notification.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastInfo    ToastType = "info"
)

// Toast is a short-lived user-facing notification.
type Toast struct {
	ID        string
	Message   string
	Type      ToastType
	Duration  time.Duration
	CreatedAt time.Time
}

// Settings are the active generation parameters, snapshotted into each
// record at submission time.
type Settings struct {
	Model   string
	Ratio   string
	Quality string
}

// Snapshot is a read-only projection of the engine state. All slices are
// copies; renderers never observe a partial update.
type Snapshot struct {
	Records        []GenerationRecord
	Pending        []Attachment
	Prompt         string
	IsSending      bool
	Toasts         []Toast
	Balance        float64
	TrialAvailable bool
	Settings       Settings
}

// SubmitRequest is what the engine hands to the generation backend.
type SubmitRequest struct {
	UserID        string
	ModelID       string
	Prompt        string
	Ratio         string
	Quality       string
	ReferenceURLs []string
}

// SubmitResult is the backend's acknowledgement of a submission.
type SubmitResult struct {
	ID       string
	PublicID string
	Status   string
}

// RemoteGeneration is one item from the backend's generation listing.
type RemoteGeneration struct {
	PublicID     string
	Status       string
	ResultURLs   []string
	ErrorMessage string
}
