package tryon

import (
	"encoding/base64"
	"time"
)

// DefaultOutputMIMEType is assumed when the service omits the MIME type of a
// generated image.
const DefaultOutputMIMEType = "image/png"

// GeneratedImage is the composite image produced by an invocation.
type GeneratedImage struct {
	// Data contains the raw image bytes
	Data []byte

	// MIMEType of the generated image
	MIMEType string

	// Model that produced the image
	Model string

	// APIVersion of the surface that answered
	APIVersion string

	// Variant of the payload that succeeded
	Variant PayloadVariant
}

// DataURL renders the image as a data URL for direct use in a browser.
func (img *GeneratedImage) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// AttemptKind classifies the result of one delivery.
type AttemptKind int

const (
	KindSuccess AttemptKind = iota
	KindTextOnly
	KindModelVersionMismatch
	KindModelUnsupportedModality
	KindQuotaExceeded
	KindEmptyResponse
	KindTransientFailure
)

func (k AttemptKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTextOnly:
		return "text_only"
	case KindModelVersionMismatch:
		return "model_version_mismatch"
	case KindModelUnsupportedModality:
		return "model_unsupported_modality"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindEmptyResponse:
		return "empty_response"
	case KindTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// AttemptOutcome is the tagged result of one delivery.
type AttemptOutcome struct {
	Kind AttemptKind

	// Image is set for KindSuccess.
	Image *GeneratedImage

	// Model is the model the delivery targeted.
	Model string

	// Detail is the human-readable failure text, empty on success.
	Detail string

	// RetryAfter is the service-suggested delay for KindQuotaExceeded, zero if absent.
	RetryAfter time.Duration

	// Err is the underlying failure, if any.
	Err error
}

// ClassifyResponse inspects the content of a successful reply. Only the first
// candidate is considered; an inline image wins over text.
func ClassifyResponse(model string, resp *ContentResponse) AttemptOutcome {
	out := AttemptOutcome{Kind: KindEmptyResponse, Model: model}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	parts := resp.Candidates[0].Content.Parts
	for _, part := range parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = DefaultOutputMIMEType
			}
			out.Kind = KindSuccess
			out.Image = &GeneratedImage{
				Data:     part.InlineData.Data,
				MIMEType: mime,
				Model:    model,
			}
			return out
		}
	}
	for _, part := range parts {
		if part.Text != "" {
			out.Kind = KindTextOnly
			out.Detail = part.Text
			return out
		}
	}
	return out
}
