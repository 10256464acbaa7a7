package tryon

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Machine statuses the classifier reacts to.
const (
	StatusResourceExhausted = "RESOURCE_EXHAUSTED"
	StatusInvalidArgument   = "INVALID_ARGUMENT"
)

// The service's machine-readable contract is incomplete, so these message
// fragments are matched verbatim. Keep them in sync with what the service
// actually sends rather than tidying them up.
var (
	quotaFragments = []string{"quota", "Quota exceeded", "free_tier"}

	versionMismatchFragments = []string{"not found", "not supported", "is not found for API version"}

	modalityFragments = []string{"not supported", "responseModalities", "IMAGE"}
)

var retryDelayPattern = regexp.MustCompile(`(?i)retry in ([0-9]+(?:\.[0-9]+)?)\s*s`)

// ClassifyError maps the failure of one call against one API version to an
// attempt outcome. Failures that are not *APIError replies (network errors,
// undecodable bodies) are transient.
func ClassifyError(model string, err error) AttemptOutcome {
	return classifyError(model, err, false)
}

// ClassifyDeliveryError maps the failure EndpointResolver.Deliver returned,
// after every API version was tried. Version drift is settled by then, so a
// rejected modality request wins over the "not supported" wording it shares
// with a version mismatch.
func ClassifyDeliveryError(model string, err error) AttemptOutcome {
	return classifyError(model, err, true)
}

func classifyError(model string, err error, modalityFirst bool) AttemptOutcome {
	out := AttemptOutcome{Model: model, Err: err}
	if err == nil {
		out.Kind = KindTransientFailure
		return out
	}
	out.Detail = err.Error()

	var localErr *LocalQuotaError
	if errors.As(err, &localErr) {
		out.Kind = KindQuotaExceeded
		out.RetryAfter = localErr.RetryAfter
		return out
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		out.Kind = KindTransientFailure
		return out
	}
	if apiErr.Message != "" {
		out.Detail = apiErr.Message
	}

	switch {
	case isQuotaFailure(apiErr):
		out.Kind = KindQuotaExceeded
		out.RetryAfter = ParseRetryDelay(apiErr.Message)
	case modalityFirst && isModalityFailure(apiErr):
		out.Kind = KindModelUnsupportedModality
	case containsAny(apiErr.Message, versionMismatchFragments):
		out.Kind = KindModelVersionMismatch
	case isModalityFailure(apiErr):
		out.Kind = KindModelUnsupportedModality
	default:
		out.Kind = KindTransientFailure
	}
	return out
}

// IsVersionMismatch reports whether err says the model is unknown under the
// API surface that was called.
func IsVersionMismatch(err error) bool {
	return ClassifyError("", err).Kind == KindModelVersionMismatch
}

// ParseRetryDelay extracts a "retry in N seconds" hint from a message,
// rounding fractional seconds up. It returns zero when there is no hint.
func ParseRetryDelay(message string) time.Duration {
	match := retryDelayPattern.FindStringSubmatch(message)
	if match == nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Ceil(seconds)) * time.Second
}

func isQuotaFailure(apiErr *APIError) bool {
	return apiErr.Status == StatusResourceExhausted || containsAny(apiErr.Message, quotaFragments)
}

func isModalityFailure(apiErr *APIError) bool {
	return apiErr.Status == StatusInvalidArgument || containsAny(apiErr.Message, modalityFragments)
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
