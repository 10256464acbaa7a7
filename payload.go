package tryon

import (
	"fmt"
	"strings"
)

// DefaultStyle is used when the caller supplies no style description.
const DefaultStyle = "photorealistic, high quality, 1200x1540 resolution, fabric detail"

// InputMIMEType tags both input images on the wire.
const InputMIMEType = "image/jpeg"

// GenerationRequest holds the inputs of one try-on generation.
type GenerationRequest struct {
	// PersonImage supplies pose, scene and lighting.
	PersonImage []byte

	// GarmentImage supplies the clothing item.
	GarmentImage []byte

	// Style is an optional free-text style description.
	Style string
}

// PayloadVariant selects one of the two request-body shapes.
type PayloadVariant int

const (
	// VariantWithModalities explicitly asks for text and image output.
	VariantWithModalities PayloadVariant = iota

	// VariantDefaultModalities lets the service pick its default output.
	VariantDefaultModalities
)

// payloadVariants lists the variants in the order they are attempted.
var payloadVariants = []PayloadVariant{VariantWithModalities, VariantDefaultModalities}

func (v PayloadVariant) String() string {
	switch v {
	case VariantWithModalities:
		return "with_modalities"
	case VariantDefaultModalities:
		return "default_modalities"
	default:
		return fmt.Sprintf("variant_%d", int(v))
	}
}

// Payload is a request body tagged with its variant.
type Payload struct {
	Variant PayloadVariant
	Body    *ContentRequest
}

// ResolveStyle trims style and substitutes DefaultStyle when nothing is left.
func ResolveStyle(style string) string {
	if s := strings.TrimSpace(style); s != "" {
		return s
	}
	return DefaultStyle
}

// Instruction builds the prompt sent with both images.
func Instruction(style string) string {
	return "Create a photorealistic virtual try-on image combining the two provided images. " +
		"Use the first image (the person) for pose, scene and lighting, and the second image " +
		"(the garment) as the clothing. The result should look as realistic as a studio photograph. " +
		"Additional style: " + ResolveStyle(style) + "."
}

// BuildPayloads returns the request bodies for req in attempt order.
// Both variants share the instruction and images; only the first carries an
// explicit response modality hint.
func BuildPayloads(req GenerationRequest) []Payload {
	instruction := Instruction(req.Style)

	payloads := make([]Payload, 0, len(payloadVariants))
	for _, variant := range payloadVariants {
		body := &ContentRequest{
			Contents: []Content{
				{
					Role: "user",
					Parts: []Part{
						{Text: instruction},
						{InlineData: &Blob{MIMEType: InputMIMEType, Data: req.PersonImage}},
						{InlineData: &Blob{MIMEType: InputMIMEType, Data: req.GarmentImage}},
					},
				},
			},
		}
		if variant == VariantWithModalities {
			body.GenerationConfig = &GenerationConfig{
				ResponseModalities: []string{"TEXT", "IMAGE"},
			}
		}
		payloads = append(payloads, Payload{Variant: variant, Body: body})
	}
	return payloads
}
