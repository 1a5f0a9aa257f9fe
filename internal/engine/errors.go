package engine

import "fmt"

// attachmentLimitError signals the pending-attachment cap for 422 mapping.
type attachmentLimitError struct{ max int }

func (e attachmentLimitError) Error() string {
	return fmt.Sprintf("attachment limit reached: at most %d images", e.max)
}

// IsAttachmentLimit reports whether err indicates the attachment cap was hit.
func IsAttachmentLimit(err error) bool {
	_, ok := err.(attachmentLimitError)
	return ok
}

// fileTooLargeError signals an oversized candidate file for 413 mapping.
type fileTooLargeError struct {
	name string
	max  int64
}

func (e fileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s exceeds %d MB", e.name, e.max/(1<<20))
}

// IsFileTooLarge reports whether err indicates an oversized file.
func IsFileTooLarge(err error) bool {
	_, ok := err.(fileTooLargeError)
	return ok
}

// unsupportedFormatError signals a failed binary signature check for 415
// mapping. The detected type reflects file content, not the declared label.
type unsupportedFormatError struct {
	name     string
	detected string
}

func (e unsupportedFormatError) Error() string {
	return "unsupported image format: " + e.name + " (" + e.detected + ")"
}

// IsUnsupportedFormat reports whether err indicates a rejected file format.
func IsUnsupportedFormat(err error) bool {
	_, ok := err.(unsupportedFormatError)
	return ok
}

// recordNotFoundError is returned when a record id is absent from the registry.
type recordNotFoundError struct{ id string }

func (e recordNotFoundError) Error() string { return "generation not found: " + e.id }

// ErrRecordNotFound constructs a recordNotFoundError.
func ErrRecordNotFound(id string) error { return recordNotFoundError{id: id} }

// IsRecordNotFound reports whether err indicates a missing record id.
func IsRecordNotFound(err error) bool {
	_, ok := err.(recordNotFoundError)
	return ok
}

// invalidStateError signals an operation applied in the wrong lifecycle state
// (e.g. retrying a record that is not in error) for 409 mapping.
type invalidStateError struct {
	id   string
	have Status
}

func (e invalidStateError) Error() string {
	return "invalid state for " + e.id + ": " + string(e.have)
}

// IsInvalidState reports whether err indicates a lifecycle conflict.
func IsInvalidState(err error) bool {
	_, ok := err.(invalidStateError)
	return ok
}
