package tryon

import (
	"errors"
	"fmt"
	"time"
)

// APIError is a failure reply from the generation service.
type APIError struct {
	HTTPStatus int    // HTTP status code of the reply
	Status     string // Machine-readable status, e.g. "RESOURCE_EXHAUSTED"
	Message    string // Human-readable message
}

func (e *APIError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("api error %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.HTTPStatus, e.Status, e.Message)
}

// FailureKind names why an invocation produced no image.
type FailureKind string

const (
	FailureQuota          FailureKind = "quota_exceeded"
	FailureTextOnly       FailureKind = "text_only"
	FailureExhausted      FailureKind = "exhausted"
	FailureInvalidRequest FailureKind = "invalid_request"

	// FailureCancelled is only reported to observers. Generate returns the
	// context error itself.
	FailureCancelled FailureKind = "cancelled"
)

// GenerationError is the terminal failure of an invocation.
// Reason is a stable, human-readable message suitable for display.
type GenerationError struct {
	Kind       FailureKind
	Reason     string
	RetryAfter time.Duration // Zero when the service gave no delay
	Model      string        // Model that produced the terminal failure, if any
	Err        error         // Last underlying failure
}

func (e *GenerationError) Error() string {
	return e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// RetryAfterSeconds returns the retry delay in whole seconds, if one is known.
func (e *GenerationError) RetryAfterSeconds() (int, bool) {
	if e.RetryAfter <= 0 {
		return 0, false
	}
	return int((e.RetryAfter + time.Second - 1) / time.Second), true
}

// IsQuotaError checks if an error reports an exhausted account quota.
func IsQuotaError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == FailureQuota
}

// RetryAfter extracts the retry delay carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.RetryAfter <= 0 {
		return 0, false
	}
	return genErr.RetryAfter, true
}

// ErrStorageNotConfigured is returned when storage operations are attempted
// without a configured storage backend.
var ErrStorageNotConfigured = errors.New("storage not configured")
