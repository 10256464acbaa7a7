package tryon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mhpenta/tryon"

// LocalQuotaError is returned when the client-side quota guard denies a call
// before it is sent.
type LocalQuotaError struct {
	RetryAfter time.Duration
}

func (e *LocalQuotaError) Error() string {
	return fmt.Sprintf("local request budget exhausted, retry in %ds", int(e.RetryAfter.Round(time.Second)/time.Second))
}

// EndpointResolver delivers one payload to one model, hiding API version
// drift: a model unknown under one surface is retried under the next.
type EndpointResolver struct {
	transport Transport
	versions  []string
	guard     QuotaGuard
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewEndpointResolver creates a resolver trying versions in order.
// guard may be nil.
func NewEndpointResolver(transport Transport, versions []string, guard QuotaGuard, logger *slog.Logger) *EndpointResolver {
	if len(versions) == 0 {
		versions = DefaultAPIVersions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointResolver{
		transport: transport,
		versions:  versions,
		guard:     guard,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Deliver sends body to model, returning the reply and the API version that
// produced it. Only a version mismatch moves on to the next version; any other
// failure is returned at once. When every version reports a mismatch the last
// failure is returned.
func (r *EndpointResolver) Deliver(ctx context.Context, model, apiKey string, payload Payload) (*ContentResponse, string, error) {
	var lastErr error
	lastVersion := ""

	for _, version := range r.versions {
		if err := r.reserve(ctx, apiKey); err != nil {
			return nil, version, err
		}

		resp, err := r.send(ctx, Call{
			APIVersion: version,
			Model:      model,
			APIKey:     apiKey,
			Body:       payload.Body,
		}, payload.Variant)
		if err == nil {
			return resp, version, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, version, ctxErr
		}

		lastErr = err
		lastVersion = version

		if !IsVersionMismatch(err) {
			return nil, version, err
		}
		r.logger.Debug("model unavailable under api version, trying next",
			"model", model,
			"api_version", version,
			"error", err.Error(),
		)
	}

	if lastErr == nil {
		lastErr = errors.New("no api versions configured")
	}
	return nil, lastVersion, lastErr
}

func (r *EndpointResolver) send(ctx context.Context, call Call, variant PayloadVariant) (*ContentResponse, error) {
	ctx, span := r.tracer.Start(ctx, "tryon.deliver", trace.WithAttributes(
		attribute.String("tryon.model", call.Model),
		attribute.String("tryon.api_version", call.APIVersion),
		attribute.String("tryon.variant", variant.String()),
	))
	defer span.End()

	resp, err := r.transport.GenerateContent(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// reserve consumes a slot from the quota guard. A guard that cannot answer
// does not block the call.
func (r *EndpointResolver) reserve(ctx context.Context, apiKey string) error {
	if r.guard == nil {
		return nil
	}
	ok, wait, err := r.guard.TryConsume(ctx, AccountKey(apiKey))
	if err != nil {
		r.logger.Warn("quota guard unavailable, sending anyway", "error", err.Error())
		return nil
	}
	if !ok {
		return &LocalQuotaError{RetryAfter: wait}
	}
	return nil
}

// AccountKey fingerprints an API key so quota budgets can be shared without
// storing the key itself.
func AccountKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}
