package tryon

import (
	"context"
	"path/filepath"
	"strings"
)

// Storage persists generated images for the caller. The engine never reads
// from it; saving is an explicit step after Generate returns.
//
// storage.Local and storage.S3 implement it.
type Storage interface {
	// SaveFile saves data under path and returns a URL where it can be read.
	// The contentType is the image's MIME type (e.g., "image/png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// StorageResult contains information about a saved image.
type StorageResult struct {
	URL  string // file://, s3:// or a presigned https link
	Path string // key the image was written under, extension included
	Size int
}

// SaveImage saves img to storage as {basePath}.{extension}. A basePath that
// already ends in the right extension is used as is.
func SaveImage(ctx context.Context, storage Storage, img *GeneratedImage, basePath string) (*StorageResult, error) {
	if storage == nil {
		return nil, ErrStorageNotConfigured
	}
	if img == nil || len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}

	ext := extensionFromMIME(img.MIMEType)
	path := basePath
	if !strings.EqualFold(strings.TrimPrefix(filepath.Ext(basePath), "."), ext) {
		path = strings.TrimSuffix(basePath, filepath.Ext(basePath)) + "." + ext
	}

	url, err := storage.SaveFile(ctx, img.Data, path, img.MIMEType)
	if err != nil {
		return nil, err
	}

	return &StorageResult{
		URL:  url,
		Path: path,
		Size: len(img.Data),
	}, nil
}

// imageExtensions maps image MIME types to file extensions. The first entry
// is the fallback in both directions.
var imageExtensions = []struct {
	mime string
	exts []string
}{
	{"image/png", []string{"png"}},
	{"image/jpeg", []string{"jpg", "jpeg"}},
	{"image/webp", []string{"webp"}},
	{"image/gif", []string{"gif"}},
}

// GetMIMEType guesses an image MIME type from a file name.
func GetMIMEType(filePath string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	for _, t := range imageExtensions {
		for _, e := range t.exts {
			if e == ext {
				return t.mime
			}
		}
	}
	return imageExtensions[0].mime
}

func extensionFromMIME(mime string) string {
	for _, t := range imageExtensions {
		if t.mime == mime {
			return t.exts[0]
		}
	}
	return imageExtensions[0].exts[0]
}
