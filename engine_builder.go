package tryon

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMaxRetries is the number of tries each (model, variant) pair gets:
// one initial attempt plus one retry.
const DefaultMaxRetries = 2

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithModels replaces the candidate models. Order is priority.
func WithModels(models []ModelCandidate) Option {
	return func(e *Engine) {
		if len(models) > 0 {
			e.models = append([]ModelCandidate(nil), models...)
		}
	}
}

// WithAPIVersions replaces the API versions tried per delivery.
func WithAPIVersions(versions ...string) Option {
	return func(e *Engine) {
		if len(versions) > 0 {
			e.versions = append([]string(nil), versions...)
		}
	}
}

// WithMaxRetries sets the number of tries per (model, variant) pair.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the retry backoff.
func WithBackoff(b Backoff) Option {
	return func(e *Engine) {
		e.backoff = b
	}
}

// WithQuotaGuard reserves a client-side request slot before every call.
func WithQuotaGuard(guard QuotaGuard) Option {
	return func(e *Engine) {
		e.guard = guard
	}
}

// WithObserver receives progress events.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// withSleep replaces the backoff sleep.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// New creates an Engine sending calls through transport.
//
// Example:
//
//	engine := tryon.New(rest.New(nil),
//	    tryon.WithLogger(slog.Default()),
//	    tryon.WithObserver(collector),
//	)
//	img, err := engine.Generate(ctx, req, apiKey)
func New(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:  transport,
		models:     DefaultModels(),
		versions:   DefaultAPIVersions,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff(),
		sleep:      sleepContext,
		logger:     slog.Default(),
		observer:   nopObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}

	e.resolver = NewEndpointResolver(e.transport, e.versions, e.guard, e.logger)
	return e
}
