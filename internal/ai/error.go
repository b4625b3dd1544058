package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by Generate when no API key was provided at
// boot. Callers treat it like any other generation failure.
var ErrNotConfigured = errors.New("ai: client not configured")

const (
	KindInvalidJSON       = "invalid_json"
	KindSafetyFilter      = "safety_filter"
	KindGenerationBlocked = "generation_blocked"
	KindMaxTokens         = "max_tokens"
	KindEmptyResponse     = "empty_response"
)

// Error classifies a generation failure so callers can decide between
// fallback payloads and hard errors.
type Error struct {
	Kind   string
	Task   Task
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ai: %s: %s", e.Task, e.Kind)
	}
	return fmt.Sprintf("ai: %s: %s: %s", e.Task, e.Kind, e.Detail)
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// classified generation error.
func KindOf(err error) string {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind string) bool {
	return KindOf(err) == kind
}
