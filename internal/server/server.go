// Package server exposes the try-on engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mhpenta/tryon"
)

// HeaderAPIKey carries a caller's own API key when client keys are allowed.
const HeaderAPIKey = "X-Goog-Api-Key"

// Generator produces a composite image. *tryon.Engine implements it.
type Generator interface {
	Generate(ctx context.Context, req tryon.GenerationRequest, apiKey string) (*tryon.GeneratedImage, error)
}

// Options configures the HTTP API.
type Options struct {
	Generator Generator

	// APIKey is used for every request unless AllowClientKeys is set and the
	// caller sends its own.
	APIKey          string
	AllowClientKeys bool

	// MaxUploadMB bounds the whole multipart body.
	MaxUploadMB int

	// Metrics is served on /metrics when set.
	Metrics http.Handler

	Logger *slog.Logger
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error             string `json:"error"`
	Kind              string `json:"kind"`
	RetryAfterSeconds *int   `json:"retry_after_seconds,omitempty"`
}

// ImageResponse is returned instead of raw bytes when the caller accepts JSON.
type ImageResponse struct {
	Image      string `json:"image"` // data URL
	MIMEType   string `json:"mime_type"`
	Model      string `json:"model"`
	APIVersion string `json:"api_version"`
	Variant    string `json:"variant"`
}

type handler struct {
	generator       Generator
	apiKey          string
	allowClientKeys bool
	logger          *slog.Logger
}

// New builds the echo instance with every route registered.
func New(opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 2 * (tryon.MaxImageSize >> 20)
	}

	h := &handler{
		generator:       opts.Generator,
		apiKey:          opts.APIKey,
		allowClientKeys: opts.AllowClientKeys,
		logger:          logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	api := e.Group("/api")
	api.POST("/tryon", h.TryOn, middleware.BodyLimit(fmt.Sprintf("%dM", maxMB)))

	return e
}

// TryOn handles POST /api/tryon.
func (h *handler) TryOn(c echo.Context) error {
	person, err := readFormImage(c, "person")
	if err != nil {
		return invalidRequest(c, err)
	}
	garment, err := readFormImage(c, "garment")
	if err != nil {
		return invalidRequest(c, err)
	}

	req := tryon.GenerationRequest{
		PersonImage:  person,
		GarmentImage: garment,
		Style:        c.FormValue("style"),
	}
	if err := tryon.ValidateRequest(req); err != nil {
		return invalidRequest(c, err)
	}

	img, err := h.generator.Generate(c.Request().Context(), req, h.keyFor(c))
	if err != nil {
		return h.generationFailed(c, err)
	}

	c.Response().Header().Set("X-Tryon-Model", img.Model)
	c.Response().Header().Set("X-Tryon-Api-Version", img.APIVersion)

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, ImageResponse{
			Image:      img.DataURL(),
			MIMEType:   img.MIMEType,
			Model:      img.Model,
			APIVersion: img.APIVersion,
			Variant:    img.Variant.String(),
		})
	}
	return c.Blob(http.StatusOK, img.MIMEType, img.Data)
}

func (h *handler) keyFor(c echo.Context) string {
	if h.allowClientKeys {
		if key := strings.TrimSpace(c.Request().Header.Get(HeaderAPIKey)); key != "" {
			return key
		}
	}
	return h.apiKey
}

func (h *handler) generationFailed(c echo.Context, err error) error {
	var genErr *tryon.GenerationError
	if !errors.As(err, &genErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "generation was cancelled", Kind: "cancelled"})
		}
		h.logger.Error("unexpected generation error", "error", err.Error())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Kind: "internal"})
	}

	resp := ErrorResponse{Error: genErr.Reason, Kind: string(genErr.Kind)}
	status := http.StatusBadGateway

	switch genErr.Kind {
	case tryon.FailureQuota:
		status = http.StatusTooManyRequests
		if seconds, ok := genErr.RetryAfterSeconds(); ok {
			resp.RetryAfterSeconds = &seconds
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	case tryon.FailureInvalidRequest:
		status = http.StatusBadRequest
	}
	return c.JSON(status, resp)
}

func invalidRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Kind:  string(tryon.FailureInvalidRequest),
	})
}

func readFormImage(c echo.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s image is required: %w", field, tryon.ErrEmptyImage)
	}
	return readMultipartFile(fh)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, tryon.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
