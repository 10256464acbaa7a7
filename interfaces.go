package tryon

import (
	"context"
	"time"
)

// Transport performs a single generateContent round trip against one API
// version of the generation service.
// Implement this interface to reach the service through a different client.
//
// A reply with a non-2xx status must be returned as an *APIError so the
// classifier can read the machine status and message. Any other error is
// treated as a transient failure.
type Transport interface {
	GenerateContent(ctx context.Context, call Call) (*ContentResponse, error)
}

// Call describes one HTTP request: which API surface, which model and with
// which credentials the body is sent.
type Call struct {
	APIVersion string
	Model      string
	APIKey     string
	Body       *ContentRequest
}

// QuotaGuard reserves request slots against a client-side budget before a call
// leaves the process. A denied slot reports how long until one frees up.
//
// ratelimiter.Local and ratelimiter.Redis implement it.
type QuotaGuard interface {
	TryConsume(ctx context.Context, account string) (bool, time.Duration, error)
}

// Observer receives progress events from the engine. Callbacks run on the
// invocation's goroutine and must not block.
type Observer interface {
	// AttemptFinished is called after each delivery of a (model, variant) pair.
	AttemptFinished(ctx context.Context, event AttemptEvent)

	// BackoffScheduled is called before the engine sleeps between retries.
	BackoffScheduled(ctx context.Context, event BackoffEvent)

	// GenerationFinished is called once per invocation with the final result.
	GenerationFinished(ctx context.Context, event FinishEvent)
}

// AttemptEvent describes one finished delivery.
type AttemptEvent struct {
	InvocationID string
	Model        string
	APIVersion   string
	Variant      PayloadVariant
	Attempt      int
	MaxRetries   int
	Kind         AttemptKind
	Duration     time.Duration
}

// BackoffEvent describes a scheduled retry delay.
type BackoffEvent struct {
	InvocationID string
	Model        string
	Variant      PayloadVariant
	Attempt      int
	Delay        time.Duration
}

// FinishEvent describes the terminal result of an invocation.
// Failure is empty on success.
type FinishEvent struct {
	InvocationID string
	Model        string
	Failure      FailureKind
	Calls        int
	Duration     time.Duration
}
