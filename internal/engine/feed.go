package engine

import (
	"bananapics/pkg/types"
)

// Feed builds the wire-level snapshot served by GET /feed.
func (e *Engine) Feed() types.FeedResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	resp := types.FeedResponse{
		Generations:        make([]types.GenerationView, 0, len(e.records)),
		PendingAttachments: make([]types.AttachmentView, 0, len(e.pending)),
		Toasts:             make([]types.ToastView, 0, len(e.toasts)),
		Prompt:             e.prompt,
		IsSending:          e.sending > 0,
		Balance:            e.balance,
		TrialAvailable:     e.trialAvailable,
		Model:              e.settings.Model,
		Ratio:              e.settings.Ratio,
		Quality:            e.settings.Quality,
		GeneratingCount:    e.countGeneratingLocked(),
	}
	for _, rec := range e.records {
		resp.Generations = append(resp.Generations, recordView(rec))
	}
	for _, a := range e.pending {
		resp.PendingAttachments = append(resp.PendingAttachments, attachmentView(a))
	}
	for _, t := range e.toasts {
		resp.Toasts = append(resp.Toasts, types.ToastView{
			ID:         t.ID,
			Message:    t.Message,
			Type:       string(t.Type),
			DurationMS: t.Duration.Milliseconds(),
		})
	}
	return resp
}

func recordView(rec GenerationRecord) types.GenerationView {
	v := types.GenerationView{
		ID:           rec.ID,
		CreatedAt:    rec.CreatedAt.Unix(),
		Mode:         string(rec.Mode),
		Prompt:       rec.Prompt,
		ResultURL:    rec.ResultURL,
		Model:        rec.Model,
		Ratio:        rec.Ratio,
		Quality:      rec.Quality,
		Liked:        rec.Liked,
		Status:       string(rec.Status),
		ErrorMessage: rec.ErrorMessage,
	}
	for _, a := range rec.Attachments {
		v.Attachments = append(v.Attachments, attachmentView(a))
	}
	return v
}

func attachmentView(a Attachment) types.AttachmentView {
	return types.AttachmentView{
		ID:    a.ID,
		URL:   a.URL,
		Name:  a.Name,
		Size:  a.Size,
		Local: a.Local,
	}
}
