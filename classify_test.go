package tryon

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       AttemptKind
		retryAfter time.Duration
		detail     string
	}{
		{
			name:       "resource exhausted status",
			err:        &APIError{HTTPStatus: 429, Status: StatusResourceExhausted, Message: "Please retry in 7s."},
			want:       KindQuotaExceeded,
			retryAfter: 7 * time.Second,
			detail:     "Please retry in 7s.",
		},
		{
			name:       "quota fragment with fractional delay",
			err:        &APIError{HTTPStatus: 429, Message: "Quota exceeded for metric free_tier_requests, retry in 3.2s"},
			want:       KindQuotaExceeded,
			retryAfter: 4 * time.Second,
		},
		{
			name: "quota wins over modality wording",
			err:  &APIError{HTTPStatus: 400, Status: StatusInvalidArgument, Message: "quota for IMAGE output is 0"},
			want: KindQuotaExceeded,
		},
		{
			name: "version mismatch",
			err:  &APIError{HTTPStatus: 404, Status: "NOT_FOUND", Message: "models/x is not found for API version v1"},
			want: KindModelVersionMismatch,
		},
		{
			name: "not supported falls back to the next version",
			err:  &APIError{HTTPStatus: 400, Status: StatusInvalidArgument, Message: "generateContent is not supported"},
			want: KindModelVersionMismatch,
		},
		{
			name: "invalid argument",
			err:  &APIError{HTTPStatus: 400, Status: StatusInvalidArgument, Message: "bad request"},
			want: KindModelUnsupportedModality,
		},
		{
			name: "modalities fragment",
			err:  &APIError{HTTPStatus: 400, Message: "responseModalities must be set"},
			want: KindModelUnsupportedModality,
		},
		{
			name: "server error",
			err:  &APIError{HTTPStatus: 500, Status: "INTERNAL", Message: "internal error"},
			want: KindTransientFailure,
		},
		{
			name:   "bare 429 without quota wording",
			err:    &APIError{HTTPStatus: 429, Message: "slow down"},
			want:   KindTransientFailure,
			detail: "slow down",
		},
		{
			name:   "network error",
			err:    errors.New("dial tcp: connection refused"),
			want:   KindTransientFailure,
			detail: "dial tcp: connection refused",
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("send: %w", &APIError{HTTPStatus: 429, Status: StatusResourceExhausted}),
			want: KindQuotaExceeded,
		},
		{
			name:       "local quota",
			err:        &LocalQuotaError{RetryAfter: 9 * time.Second},
			want:       KindQuotaExceeded,
			retryAfter: 9 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ClassifyError("gemini-test", tt.err)
			assert.Equal(t, tt.want, out.Kind, "kind %s", out.Kind)
			assert.Equal(t, tt.retryAfter, out.RetryAfter)
			assert.Equal(t, "gemini-test", out.Model)
			assert.Same(t, tt.err, out.Err)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, out.Detail)
			}
		})
	}
}

func TestClassifyDeliveryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want AttemptKind
	}{
		{
			name: "invalid argument that is not supported",
			err:  &APIError{HTTPStatus: 400, Status: StatusInvalidArgument, Message: "Multi-modal output is not supported."},
			want: KindModelUnsupportedModality,
		},
		{
			name: "not supported without status",
			err:  &APIError{HTTPStatus: 400, Message: "generateContent is not supported"},
			want: KindModelUnsupportedModality,
		},
		{
			name: "quota still wins",
			err:  &APIError{HTTPStatus: 400, Status: StatusInvalidArgument, Message: "quota for IMAGE output is 0"},
			want: KindQuotaExceeded,
		},
		{
			name: "unknown model on every version",
			err:  &APIError{HTTPStatus: 404, Status: "NOT_FOUND", Message: "models/x is not found for API version v1"},
			want: KindModelVersionMismatch,
		},
		{
			name: "server error",
			err:  &APIError{HTTPStatus: 503, Status: "UNAVAILABLE", Message: "overloaded"},
			want: KindTransientFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDeliveryError("m", tt.err).Kind)
		})
	}
}

func TestIsVersionMismatch(t *testing.T) {
	assert.True(t, IsVersionMismatch(&APIError{Status: StatusInvalidArgument, Message: "Multi-modal output is not supported."}))
	assert.True(t, IsVersionMismatch(&APIError{Message: "models/x is not found for API version v1beta"}))
	assert.False(t, IsVersionMismatch(&APIError{Status: StatusResourceExhausted, Message: "model not found"}))
	assert.False(t, IsVersionMismatch(&APIError{Status: StatusInvalidArgument, Message: "bad request"}))
}

func TestParseRetryDelay(t *testing.T) {
	tests := []struct {
		message string
		want    time.Duration
	}{
		{"Please retry in 12.0s.", 12 * time.Second},
		{"Please Retry In 0.4 s", time.Second},
		{"retry in 59.001s", 60 * time.Second},
		{"try again later", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRetryDelay(tt.message), tt.message)
	}
}

func TestClassifyResponse(t *testing.T) {
	t.Run("image wins over text", func(t *testing.T) {
		out := ClassifyResponse("m", imageResponse([]byte("img")))
		require.Equal(t, KindSuccess, out.Kind)
		require.NotNil(t, out.Image)
		assert.Equal(t, []byte("img"), out.Image.Data)
		assert.Equal(t, "m", out.Image.Model)
	})

	t.Run("missing mime type defaults to png", func(t *testing.T) {
		resp := &ContentResponse{Candidates: []Candidate{{
			Content: &Content{Parts: []Part{{InlineData: &Blob{Data: []byte{1}}}}},
		}}}
		out := ClassifyResponse("m", resp)
		require.Equal(t, KindSuccess, out.Kind)
		assert.Equal(t, DefaultOutputMIMEType, out.Image.MIMEType)
	})

	t.Run("text only", func(t *testing.T) {
		out := ClassifyResponse("m", textResponse("a description"))
		assert.Equal(t, KindTextOnly, out.Kind)
		assert.Equal(t, "a description", out.Detail)
		assert.Nil(t, out.Image)
	})

	t.Run("only the first candidate counts", func(t *testing.T) {
		resp := &ContentResponse{Candidates: []Candidate{
			{Content: &Content{Parts: []Part{{Text: "words"}}}},
			{Content: &Content{Parts: []Part{{InlineData: &Blob{Data: []byte{1}}}}}},
		}}
		assert.Equal(t, KindTextOnly, ClassifyResponse("m", resp).Kind)
	})

	t.Run("empty", func(t *testing.T) {
		for _, resp := range []*ContentResponse{nil, {}, emptyResponse(), {Candidates: []Candidate{{}}}} {
			assert.Equal(t, KindEmptyResponse, ClassifyResponse("m", resp).Kind)
		}
	})
}
