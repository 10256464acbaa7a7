// Package rest provides a tryon.Transport that speaks the generateContent
// REST surface directly over net/http.
//
// Each call is sent to
//
//	{BaseURL}/{version}/models/{model}:generateContent?key={apiKey}
//
// which keeps the API version a per-call choice, as the engine's endpoint
// resolver requires.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mhpenta/tryon"
)

// DefaultBaseURL is the public endpoint of the generation service.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultTimeout bounds a single round trip.
const DefaultTimeout = 120 * time.Second

// maxErrorBody caps how much of a failure body is read.
const maxErrorBody = 1 << 20

// Transport implements tryon.Transport over HTTP.
type Transport struct {
	baseURL string
	client  *http.Client
}

var _ tryon.Transport = (*Transport)(nil)

// Option configures the Transport.
type Option func(*Transport)

// WithBaseURL points the transport at a different host, e.g. a proxy or a
// test server.
func WithBaseURL(baseURL string) Option {
	return func(t *Transport) {
		if baseURL != "" {
			t.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// New creates a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint returns the URL a call is posted to.
func (t *Transport) Endpoint(call tryon.Call) string {
	q := url.Values{}
	q.Set("key", call.APIKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s",
		t.baseURL,
		url.PathEscape(call.APIVersion),
		url.PathEscape(call.Model),
		q.Encode(),
	)
}

// GenerateContent posts the call body and decodes the reply. Non-2xx replies
// come back as *tryon.APIError.
func (t *Transport) GenerateContent(ctx context.Context, call tryon.Call) (*tryon.ContentResponse, error) {
	payload, err := json.Marshal(call.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(call), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s/%s: %w", call.APIVersion, call.Model, redactKey(err, call.APIKey))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, decodeError(res.StatusCode, body)
	}

	var out tryon.ContentResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// decodeError turns a failure body into an APIError. Bodies that are not the
// service's JSON error envelope keep their raw text as the message.
func decodeError(status int, body []byte) *tryon.APIError {
	apiErr := &tryon.APIError{HTTPStatus: status}

	var envelope tryon.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Error.Message != "" || envelope.Error.Status != "") {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// redactKey keeps the API key out of errors that echo the request URL.
func redactKey(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	redacted := strings.ReplaceAll(strings.ReplaceAll(msg, url.QueryEscape(apiKey), "REDACTED"), apiKey, "REDACTED")
	if redacted == msg {
		return err
	}
	return &redactedError{msg: redacted, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
