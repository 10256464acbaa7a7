package tryon

// Action is what the engine does after an attempt.
type Action int

const (
	// ActionRetry repeats the same (model, variant) pair after a backoff.
	ActionRetry Action = iota

	// ActionNextVariant moves to the next payload variant of the same model,
	// or to the next model when no variant is left.
	ActionNextVariant

	// ActionNextModel abandons the remaining variants of the current model.
	ActionNextModel

	// ActionReturnImage ends the invocation with the generated image.
	ActionReturnImage

	// ActionAbort ends the invocation with a failure; nothing else is tried.
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionNextVariant:
		return "next_variant"
	case ActionNextModel:
		return "next_model"
	case ActionReturnImage:
		return "return_image"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Decide is the transition table of the engine. attempt is the 0-indexed try
// of the current (model, variant) pair and maxRetries the number of tries each
// pair gets.
func Decide(kind AttemptKind, variant PayloadVariant, attempt, maxRetries int) Action {
	first := variant == payloadVariants[0]

	switch kind {
	case KindSuccess:
		return ActionReturnImage
	case KindQuotaExceeded:
		// Quota is account wide: another model would hit it too.
		return ActionAbort
	case KindTextOnly:
		// Text-only output is a property of the model, not of the payload.
		return ActionNextModel
	case KindModelUnsupportedModality, KindEmptyResponse:
		if first {
			return ActionNextVariant
		}
		return ActionNextModel
	default:
		if attempt >= maxRetries-1 {
			return ActionNextVariant
		}
		return ActionRetry
	}
}
