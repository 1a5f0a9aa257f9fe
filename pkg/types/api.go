package types

// SubmitRequest is the payload accepted by POST /generations.
type SubmitRequest struct {
	// Prompt text describing the image to generate. May be empty when
	// reference attachments are pending.
	// example: a red apple
	Prompt string `json:"prompt" example:"a red apple"`
}

// RemoteAttachmentRequest is the payload accepted by POST /attachments/url.
type RemoteAttachmentRequest struct {
	// Publicly reachable image URL to use as a reference.
	// example: https://cdn.example/ref.png
	URL string `json:"url" example:"https://cdn.example/ref.png"`
}

// SubmitResponse is returned after a generation was accepted.
type SubmitResponse struct {
	// Identifier of the newly created generation record. Local until the
	// backend confirms the submission.
	ID string `json:"id"`
}

// AttachmentView describes one composer or snapshot attachment.
type AttachmentView struct {
	// Locally generated attachment id.
	ID string `json:"id"`
	// Remote URL or transient local preview reference.
	URL string `json:"url"`
	// Original file name, when known.
	Name string `json:"name,omitempty"`
	// File size in bytes.
	// example: 524288
	Size int64 `json:"size,omitempty" example:"524288"`
	// True when the URL is a session-local preview handle.
	Local bool `json:"local,omitempty"`
}

// GenerationView is the read model for one generation record.
type GenerationView struct {
	// Record id: local until reconciled, then the server-assigned public id.
	ID string `json:"id"`
	// Creation time in unix seconds.
	// example: 1700000000
	CreatedAt int64 `json:"created_at_unix" example:"1700000000"`
	// Generation mode.
	// example: text-to-image
	Mode string `json:"mode" example:"text-to-image"`
	// Prompt used for the request.
	// example: a red apple
	Prompt string `json:"prompt" example:"a red apple"`
	// Attachment snapshot captured at submission time.
	Attachments []AttachmentView `json:"attachments,omitempty"`
	// URL of the produced image once the backend reports one.
	ResultURL string `json:"result_url,omitempty"`
	// Model id captured from the settings at submission time.
	// example: banana-v1
	Model string `json:"model,omitempty" example:"banana-v1"`
	// Aspect ratio captured at submission time.
	// example: 1:1
	Ratio string `json:"ratio,omitempty" example:"1:1"`
	// Quality tier captured at submission time.
	// example: standard
	Quality string `json:"quality,omitempty" example:"standard"`
	// Local-only like annotation.
	Liked bool `json:"liked"`
	// Lifecycle status: idle, generating, done or error.
	// example: generating
	Status string `json:"status" example:"generating"`
	// Human-readable failure message, present only when status is error.
	ErrorMessage string `json:"error_message,omitempty"`
}

// ToastView describes one visible notification.
type ToastView struct {
	ID string `json:"id"`
	// Message shown to the user.
	Message string `json:"message"`
	// Toast type: success, error or info.
	// example: error
	Type string `json:"type" example:"error"`
	// Visibility budget in milliseconds.
	// example: 3000
	DurationMS int64 `json:"duration_ms" example:"3000"`
}

// FeedResponse is returned by GET /feed: an atomic snapshot of the engine
// state. Records, composer and notifications never tear across it.
type FeedResponse struct {
	// Generation records, newest first.
	Generations []GenerationView `json:"generations"`
	// Attachments pending in the composer.
	PendingAttachments []AttachmentView `json:"pending_attachments"`
	// Current composer prompt.
	Prompt string `json:"prompt"`
	// True while at least one submission call is in flight.
	IsSending bool `json:"is_sending"`
	// Visible toasts in insertion order.
	Toasts []ToastView `json:"toasts"`
	// Last known account balance.
	// example: 41.5
	Balance float64 `json:"balance" example:"41.5"`
	// Whether a free trial generation is still available.
	TrialAvailable bool `json:"trial_available"`
	// Active generation settings.
	Model   string `json:"model"`
	Ratio   string `json:"ratio"`
	Quality string `json:"quality"`
	// Number of records currently generating.
	// example: 1
	GeneratingCount int `json:"generating_count" example:"1"`
}

// BalanceResponse is returned by GET /balance.
type BalanceResponse struct {
	// Account balance in credits.
	// example: 41.5
	Balance float64 `json:"balance" example:"41.5"`
}

// SettingsRequest updates the active generation settings; empty fields keep
// their current value.
type SettingsRequest struct {
	Model   string `json:"model,omitempty"`
	Ratio   string `json:"ratio,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
