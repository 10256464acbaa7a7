package tryon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Engine turns one "generate a composite" request into a sequence of calls
// against the generation service, falling back across models, payload
// variants and API versions until an image comes back or nothing is left.
//
// An Engine holds only immutable configuration. Each Generate call keeps its
// own retry state, so separate invocations may run concurrently; a single
// invocation never has more than one call in flight.
type Engine struct {
	transport  Transport
	models     []ModelCandidate
	versions   []string
	maxRetries int
	backoff    Backoff
	guard      QuotaGuard
	resolver   *EndpointResolver

	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
	observer Observer
}

// invocation is the mutable state of one Generate call.
type invocation struct {
	id    string
	start time.Time
	calls int

	lastDetail string
	lastErr    error
	lastModel  string

	textOnlyModels int
	lastTextOnly   string
}

// Models returns the candidate models in priority order.
func (e *Engine) Models() []ModelCandidate {
	return append([]ModelCandidate(nil), e.models...)
}

// MaxRetries returns the number of tries each (model, variant) pair gets.
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

// Generate produces a composite of the person and garment images.
//
// On failure the error is a *GenerationError carrying a display message and,
// for quota failures, the delay after which a new attempt may succeed. If ctx
// is cancelled the context error is returned instead.
func (e *Engine) Generate(ctx context.Context, req GenerationRequest, apiKey string) (*GeneratedImage, error) {
	inv := &invocation{id: uuid.NewString(), start: time.Now()}
	logger := e.logger.With("invocation_id", inv.id)

	if err := checkInputs(req, apiKey); err != nil {
		return nil, e.finish(ctx, inv, nil, &GenerationError{
			Kind:   FailureInvalidRequest,
			Reason: err.Error(),
			Err:    err,
		})
	}

	logger.Debug("starting try-on generation",
		"models", len(e.models),
		"style_length", len(req.Style),
		"person_size", len(req.PersonImage),
		"garment_size", len(req.GarmentImage),
	)

	payloads := BuildPayloads(req)
	modelIdx, variantIdx, attempt := 0, 0, 0

	for modelIdx < len(e.models) {
		model := e.models[modelIdx].ID
		payload := payloads[variantIdx]

		out := e.attempt(ctx, inv, logger, model, apiKey, payload, attempt)
		if err := ctx.Err(); err != nil {
			return nil, e.cancelled(ctx, inv, model, err)
		}

		action := Decide(out.Kind, payload.Variant, attempt, e.maxRetries)
		inv.record(out, payload.Variant)

		switch action {
		case ActionReturnImage:
			out.Image.Variant = payload.Variant
			return out.Image, e.finish(ctx, inv, out.Image, nil)

		case ActionAbort:
			logger.Warn("quota exceeded, aborting generation",
				"model", model,
				"retry_after_s", out.RetryAfter.Seconds(),
			)
			return nil, e.finish(ctx, inv, nil, &GenerationError{
				Kind:       FailureQuota,
				Reason:     quotaReason(out.RetryAfter),
				RetryAfter: out.RetryAfter,
				Model:      model,
				Err:        out.Err,
			})

		case ActionRetry:
			attempt++
			delay := e.backoff.Delay(attempt)
			e.observer.BackoffScheduled(ctx, BackoffEvent{
				InvocationID: inv.id,
				Model:        model,
				Variant:      payload.Variant,
				Attempt:      attempt,
				Delay:        delay,
			})
			logger.Debug("retrying after backoff",
				"model", model,
				"variant", payload.Variant.String(),
				"attempt", attempt,
				"delay_ms", delay.Milliseconds(),
			)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, e.cancelled(ctx, inv, model, err)
			}

		case ActionNextVariant:
			variantIdx++
			attempt = 0
			if variantIdx >= len(payloads) {
				modelIdx++
				variantIdx = 0
			}

		case ActionNextModel:
			modelIdx++
			variantIdx = 0
			attempt = 0
		}
	}

	return nil, e.finish(ctx, inv, nil, e.exhausted(inv))
}

// attempt performs one delivery and classifies its result.
func (e *Engine) attempt(ctx context.Context, inv *invocation, logger *slog.Logger, model, apiKey string, payload Payload, attempt int) AttemptOutcome {
	start := time.Now()
	inv.calls++

	resp, version, err := e.resolver.Deliver(ctx, model, apiKey, payload)

	var out AttemptOutcome
	if err != nil {
		out = ClassifyDeliveryError(model, err)
	} else {
		out = ClassifyResponse(model, resp)
		if out.Image != nil {
			out.Image.APIVersion = version
		}
	}
	duration := time.Since(start)

	e.observer.AttemptFinished(ctx, AttemptEvent{
		InvocationID: inv.id,
		Model:        model,
		APIVersion:   version,
		Variant:      payload.Variant,
		Attempt:      attempt,
		MaxRetries:   e.maxRetries,
		Kind:         out.Kind,
		Duration:     duration,
	})

	attrs := []any{
		"model", model,
		"api_version", version,
		"variant", payload.Variant.String(),
		"attempt", attempt,
		"outcome", out.Kind.String(),
		"duration_ms", duration.Milliseconds(),
	}
	if out.Kind != KindSuccess && out.Detail != "" {
		attrs = append(attrs, "error", out.Detail)
	}
	logger.Debug("attempt finished", attrs...)

	return out
}

// record keeps what the final failure message needs.
func (inv *invocation) record(out AttemptOutcome, variant PayloadVariant) {
	inv.lastModel = out.Model

	switch out.Kind {
	case KindSuccess:
		return
	case KindTextOnly:
		inv.textOnlyModels++
		inv.lastTextOnly = out.Model
		inv.lastDetail = fmt.Sprintf("model %s returned only text, not an image", out.Model)
		inv.lastErr = nil
		return
	case KindEmptyResponse:
		// An empty reply to the first variant only moves on to the next one.
		if variant == payloadVariants[0] {
			return
		}
		inv.lastDetail = emptyResponseDetail
		inv.lastErr = nil
		return
	}

	if out.Detail != "" {
		inv.lastDetail = out.Detail
	}
	inv.lastErr = out.Err
}

func (e *Engine) exhausted(inv *invocation) *GenerationError {
	if inv.textOnlyModels == len(e.models) && inv.lastTextOnly != "" {
		return &GenerationError{
			Kind:   FailureTextOnly,
			Reason: textOnlyReason(inv.lastTextOnly, recommendedModel(e.models)),
			Model:  inv.lastTextOnly,
		}
	}
	return &GenerationError{
		Kind:   FailureExhausted,
		Reason: exhaustedReason(len(e.models), inv.lastDetail),
		Model:  inv.lastModel,
		Err:    inv.lastErr,
	}
}

// finish logs and reports the terminal result. It returns genErr unchanged,
// or nil when genErr is nil.
func (e *Engine) finish(ctx context.Context, inv *invocation, img *GeneratedImage, genErr *GenerationError) error {
	duration := time.Since(inv.start)
	event := FinishEvent{
		InvocationID: inv.id,
		Calls:        inv.calls,
		Duration:     duration,
	}

	if genErr == nil {
		event.Model = img.Model
		e.observer.GenerationFinished(ctx, event)
		e.logger.Info("generation completed",
			"invocation_id", inv.id,
			"model", img.Model,
			"api_version", img.APIVersion,
			"variant", img.Variant.String(),
			"calls", inv.calls,
			"duration_ms", duration.Milliseconds(),
			"image_size", len(img.Data),
		)
		return nil
	}

	event.Model = genErr.Model
	event.Failure = genErr.Kind
	e.observer.GenerationFinished(ctx, event)
	e.logger.Error("generation failed",
		"invocation_id", inv.id,
		"kind", string(genErr.Kind),
		"calls", inv.calls,
		"duration_ms", duration.Milliseconds(),
		"error", genErr.Reason,
	)
	return genErr
}

// cancelled reports an invocation abandoned by its caller and returns err.
func (e *Engine) cancelled(ctx context.Context, inv *invocation, model string, err error) error {
	duration := time.Since(inv.start)
	e.observer.GenerationFinished(ctx, FinishEvent{
		InvocationID: inv.id,
		Model:        model,
		Failure:      FailureCancelled,
		Calls:        inv.calls,
		Duration:     duration,
	})
	e.logger.Warn("generation cancelled",
		"invocation_id", inv.id,
		"model", model,
		"calls", inv.calls,
		"duration_ms", duration.Milliseconds(),
		"error", err.Error(),
	)
	return err
}

func checkInputs(req GenerationRequest, apiKey string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	if len(req.PersonImage) == 0 || len(req.GarmentImage) == 0 {
		return fmt.Errorf("both the person and the garment images are required: %w", ErrEmptyImage)
	}
	return nil
}
