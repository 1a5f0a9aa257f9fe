package engine

import "strings"

// MapStatus translates a backend status string into the local enum.
// Matching is case-insensitive; unknown values map to idle.
func MapStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed":
		return StatusDone
	case "failed", "cancelled":
		return StatusError
	case "pending", "configuring", "queued", "running":
		return StatusGenerating
	default:
		return StatusIdle
	}
}
