// Package gemini provides a tryon.Transport backed by Google's official Go SDK:
// https://github.com/googleapis/go-genai
//
// The SDK fixes the API version per client, so the transport keeps one client
// per (API key, API version) pair and lets the engine pick the version call
// by call.
package gemini

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/mhpenta/tryon"
	"google.golang.org/genai"
)

// Transport implements tryon.Transport using the genai SDK.
type Transport struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	clients map[clientKey]*genai.Client
}

type clientKey struct {
	account [sha256.Size]byte
	version string
}

// Ensure Transport implements the interface.
var _ tryon.Transport = (*Transport)(nil)

// Option configures the Transport.
type Option func(*Transport)

// WithBaseURL overrides the service endpoint.
func WithBaseURL(baseURL string) Option {
	return func(t *Transport) {
		t.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = client
	}
}

// New creates a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{clients: make(map[clientKey]*genai.Client)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GenerateContent sends call through the SDK.
func (t *Transport) GenerateContent(ctx context.Context, call tryon.Call) (*tryon.ContentResponse, error) {
	client, err := t.client(ctx, call.APIKey, call.APIVersion)
	if err != nil {
		return nil, err
	}

	contents, config := convertRequest(call.Body)

	result, err := client.Models.GenerateContent(ctx, call.Model, contents, config)
	if err != nil {
		return nil, convertError(err)
	}
	return convertResponse(result), nil
}

// client returns the cached client for apiKey and version, creating it on
// first use.
func (t *Transport) client(ctx context.Context, apiKey, version string) (*genai.Client, error) {
	key := clientKey{account: sha256.Sum256([]byte(apiKey)), version: version}

	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[key]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: t.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    t.baseURL,
			APIVersion: version,
		},
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	t.clients[key] = c
	return c, nil
}

// convertRequest maps the wire body onto the SDK's request types.
func convertRequest(body *tryon.ContentRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	if body == nil {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(body.Contents))
	for _, c := range body.Contents {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			part := &genai.Part{Text: p.Text}
			if p.InlineData != nil {
				part.InlineData = &genai.Blob{
					Data:     p.InlineData.Data,
					MIMEType: p.InlineData.MIMEType,
				}
			}
			parts = append(parts, part)
		}
		contents = append(contents, &genai.Content{Role: c.Role, Parts: parts})
	}

	var config *genai.GenerateContentConfig
	if body.GenerationConfig != nil {
		config = &genai.GenerateContentConfig{
			ResponseModalities: body.GenerationConfig.ResponseModalities,
		}
	}
	return contents, config
}

// convertResponse maps the SDK reply back to the wire types. Thought parts
// are dropped; they are never the answer.
func convertResponse(result *genai.GenerateContentResponse) *tryon.ContentResponse {
	out := &tryon.ContentResponse{}
	if result == nil {
		return out
	}

	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			out.Candidates = append(out.Candidates, tryon.Candidate{})
			continue
		}

		content := &tryon.Content{Role: candidate.Content.Role}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			p := tryon.Part{Text: part.Text}
			if part.InlineData != nil {
				p.InlineData = &tryon.Blob{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}
			}
			content.Parts = append(content.Parts, p)
		}
		out.Candidates = append(out.Candidates, tryon.Candidate{Content: content})
	}
	return out
}

// convertError exposes SDK API failures as *tryon.APIError so the engine can
// classify them. Other errors pass through unchanged.
func convertError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("generation failed: %w", err)
	}
	return &tryon.APIError{
		HTTPStatus: apiErr.Code,
		Status:     apiErr.Status,
		Message:    apiErr.Message,
	}
}
