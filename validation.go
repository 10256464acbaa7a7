package tryon

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Validation errors
var (
	ErrEmptyImage       = errors.New("image data cannot be empty")
	ErrImageTooLarge    = errors.New("image data exceeds maximum size")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrMissingAPIKey    = errors.New("api key is required")
)

// MaxImageSize is the maximum allowed size of each input image in bytes (20MB).
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the accepted input image types.
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImage checks a single input image buffer. name is used in messages.
func ValidateImage(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyImage)
	}
	if len(data) > MaxImageSize {
		return fmt.Errorf("%s: %w: %d bytes (max %d)", name, ErrImageTooLarge, len(data), MaxImageSize)
	}
	mime := DetectMIMEType(data)
	if !ValidMIMETypes[mime] {
		return fmt.Errorf("%s: %w: %s", name, ErrUnsupportedImage, mime)
	}
	return nil
}

// ValidateRequest checks both images of a request.
func ValidateRequest(req GenerationRequest) error {
	if err := ValidateImage("person image", req.PersonImage); err != nil {
		return err
	}
	return ValidateImage("garment image", req.GarmentImage)
}

// DetectMIMEType sniffs the content type of data.
func DetectMIMEType(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}
