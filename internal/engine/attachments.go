package engine

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// allowedImageTypes are the formats accepted for image-to-image references.
// The check runs on file content; a mislabeled file does not pass.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

const (
	msgTooManyAttachments = "You can attach at most 3 images."
	msgFileTooLarge       = "Image is too large (max 20 MB)."
	msgUnsupportedFormat  = "Unsupported image format. Use JPEG, PNG, WebP or GIF."
	msgAttachFailed       = "Could not attach that image. Please try again."
)

// AddAttachment validates one candidate file and, if accepted, creates a
// preview handle and appends it to the pending list. Rejections push an
// error toast and leave the pending list untouched; no preview handle is
// created for a rejected file, so there is nothing to leak.
func (e *Engine) AddAttachment(name string, data []byte) (Attachment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Attachment{}, ErrRecordNotFound("(engine disposed)")
	}
	// Hard cap, checked before any validation.
	if len(e.pending) >= e.maxAttachments {
		attachmentRejectsTotal.WithLabelValues("limit").Inc()
		e.pushToastLocked(msgTooManyAttachments, ToastError, 0)
		return Attachment{}, attachmentLimitError{max: e.maxAttachments}
	}
	if int64(len(data)) > e.maxFileBytes {
		attachmentRejectsTotal.WithLabelValues("size").Inc()
		e.pushToastLocked(msgFileTooLarge, ToastError, 0)
		return Attachment{}, fileTooLargeError{name: name, max: e.maxFileBytes}
	}
	mt := mimetype.Detect(data)
	if !isAllowedImage(mt) {
		attachmentRejectsTotal.WithLabelValues("format").Inc()
		e.pushToastLocked(msgUnsupportedFormat, ToastError, 0)
		return Attachment{}, unsupportedFormatError{name: name, detected: mt.String()}
	}

	url, err := e.previews.Create(name, bytes.NewReader(data))
	if err != nil {
		attachmentRejectsTotal.WithLabelValues("preview").Inc()
		e.pushToastLocked(msgAttachFailed, ToastError, 0)
		return Attachment{}, err
	}
	att := Attachment{
		ID:    uuid.NewString(),
		URL:   url,
		Name:  name,
		Size:  int64(len(data)),
		Local: true,
	}
	e.previewRefs[url] = struct{}{}
	e.pending = append(e.pending, att)
	return att, nil
}

// AddRemoteAttachment appends an already-hosted image URL to the pending
// list. Only the cap applies; there is no local resource to manage.
func (e *Engine) AddRemoteAttachment(url string) (Attachment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) >= e.maxAttachments {
		attachmentRejectsTotal.WithLabelValues("limit").Inc()
		e.pushToastLocked(msgTooManyAttachments, ToastError, 0)
		return Attachment{}, attachmentLimitError{max: e.maxAttachments}
	}
	att := Attachment{ID: uuid.NewString(), URL: url}
	e.pending = append(e.pending, att)
	return att, nil
}

// RemoveAttachment drops one pending attachment and releases its preview
// handle. Removing an id that is already gone is a no-op; the underlying
// handle is never released twice.
func (e *Engine) RemoveAttachment(id string) {
	e.mu.Lock()
	idx := -1
	for i := range e.pending {
		if e.pending[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	att := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	release := false
	if att.Local {
		if _, live := e.previewRefs[att.URL]; live {
			delete(e.previewRefs, att.URL)
			release = true
		}
	}
	e.mu.Unlock()

	if release {
		if err := e.previews.Revoke(att.URL); err != nil {
			e.log.Warn().Err(err).Str("url", att.URL).Msg("preview revoke failed")
		}
	}
}

// ClearAttachments empties the pending list and releases every preview
// handle still owned by the composer.
func (e *Engine) ClearAttachments() {
	e.mu.Lock()
	refs := e.detachPendingLocked(true)
	e.mu.Unlock()
	for _, url := range refs {
		if err := e.previews.Revoke(url); err != nil {
			e.log.Warn().Err(err).Str("url", url).Msg("preview revoke failed")
		}
	}
}

// detachPendingLocked empties the pending list. When release is true the
// composer keeps ownership and the caller must revoke the returned handles;
// when false, ownership has transferred to a record snapshot and the refs
// stay live until that record lets go of them.
func (e *Engine) detachPendingLocked(release bool) []string {
	var refs []string
	if release {
		for _, a := range e.pending {
			if !a.Local {
				continue
			}
			if _, live := e.previewRefs[a.URL]; live {
				delete(e.previewRefs, a.URL)
				refs = append(refs, a.URL)
			}
		}
	}
	e.pending = nil
	return refs
}

func isAllowedImage(mt *mimetype.MIME) bool {
	for _, want := range allowedImageTypes {
		if mt.Is(want) {
			return true
		}
	}
	return false
}
