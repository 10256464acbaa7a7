package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mhpenta/tryon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCall(version string) tryon.Call {
	payloads := tryon.BuildPayloads(tryon.GenerationRequest{
		PersonImage:  []byte("person"),
		GarmentImage: []byte("garment"),
	})
	return tryon.Call{
		APIVersion: version,
		Model:      tryon.ModelFlashImagePreview,
		APIKey:     "secret key",
		Body:       payloads[0].Body,
	}
}

func TestTransport_GenerateContent(t *testing.T) {
	var gotPath, gotKey string
	var gotBody tryon.ContentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[
			{"text":"done"},
			{"inlineData":{"mimeType":"image/png","data":"aW1n"}}
		]}}]}`))
	}))
	defer srv.Close()

	transport := New(WithBaseURL(srv.URL + "/"))
	resp, err := transport.GenerateContent(context.Background(), testCall("v1beta"))
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image-preview:generateContent", gotPath)
	assert.Equal(t, "secret key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Len(t, gotBody.Contents[0].Parts, 3)
	assert.Equal(t, []byte("person"), gotBody.Contents[0].Parts[1].InlineData.Data)

	out := tryon.ClassifyResponse("m", resp)
	require.Equal(t, tryon.KindSuccess, out.Kind)
	assert.Equal(t, []byte("img"), out.Image.Data)
}

func TestTransport_GenerateContent_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded. Please retry in 21.5s.","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).GenerateContent(context.Background(), testCall("v1"))
	require.Error(t, err)

	var apiErr *tryon.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.HTTPStatus)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
	assert.Equal(t, "Quota exceeded. Please retry in 21.5s.", apiErr.Message)

	out := tryon.ClassifyError("m", err)
	assert.Equal(t, tryon.KindQuotaExceeded, out.Kind)
	assert.Equal(t, 22.0, out.RetryAfter.Seconds())
}

func TestTransport_GenerateContent_PlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).GenerateContent(context.Background(), testCall("v1"))

	var apiErr *tryon.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
	assert.Empty(t, apiErr.Status)
}

func TestTransport_GenerateContent_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).GenerateContent(context.Background(), testCall("v1"))
	require.Error(t, err)

	var apiErr *tryon.APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, tryon.KindTransientFailure, tryon.ClassifyError("m", err).Kind)
}

func TestTransport_GenerateContent_NetworkErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := New(WithBaseURL(baseURL)).GenerateContent(context.Background(), testCall("v1"))
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret"), err.Error())
}

func TestTransport_Endpoint(t *testing.T) {
	transport := New()
	call := tryon.Call{APIVersion: "v1", Model: "gemini-2.0-flash-001", APIKey: "k"}
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1/models/gemini-2.0-flash-001:generateContent?key=k",
		transport.Endpoint(call),
	)
}
