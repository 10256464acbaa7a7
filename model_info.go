package tryon

// Model identifiers of the default candidates.
const (
	// ModelFlashImagePreview is built for image generation and is tried first.
	ModelFlashImagePreview = "gemini-2.5-flash-image-preview"

	// ModelFlash may answer with text only on some plans.
	ModelFlash = "gemini-2.5-flash"

	// ModelFlash20 is the stable fallback; it may also answer with text only.
	ModelFlash20 = "gemini-2.0-flash-001"
)

// API versions in the order they are tried for every model.
const (
	APIVersionBeta = "v1beta"
	APIVersionV1   = "v1"
)

// DefaultAPIVersions lists the API surfaces tried per delivery.
var DefaultAPIVersions = []string{APIVersionBeta, APIVersionV1}

// ModelCandidate is one model the engine may ask for a composite.
// Its priority is its position in the candidate list.
type ModelCandidate struct {
	// ID is the API model name
	ID string

	// ImageCapable marks models built for image output. The first such model
	// is recommended to the user when every model answers with text only.
	ImageCapable bool
}

// DefaultModels returns the candidate list in priority order.
func DefaultModels() []ModelCandidate {
	return []ModelCandidate{
		{ID: ModelFlashImagePreview, ImageCapable: true},
		{ID: ModelFlash},
		{ID: ModelFlash20},
	}
}

// ModelsFromIDs builds a candidate list from plain identifiers. Identifiers of
// the known image-capable models keep their flag.
func ModelsFromIDs(ids []string) []ModelCandidate {
	models := make([]ModelCandidate, 0, len(ids))
	for _, id := range ids {
		models = append(models, ModelCandidate{
			ID:           id,
			ImageCapable: id == ModelFlashImagePreview,
		})
	}
	return models
}

// recommendedModel returns the model suggested when nothing produced an image.
func recommendedModel(models []ModelCandidate) string {
	for _, m := range models {
		if m.ImageCapable {
			return m.ID
		}
	}
	return ModelFlashImagePreview
}
