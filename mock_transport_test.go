package tryon

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// MockTransport is a mock implementation of Transport.
type MockTransport struct {
	GenerateContentFunc func(ctx context.Context, call Call) (*ContentResponse, error)

	mu    sync.Mutex
	calls []Call
}

func (m *MockTransport) GenerateContent(ctx context.Context, call Call) (*ContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, call)
	}
	return imageResponse([]byte("fake-image")), nil
}

// Calls returns the calls received so far.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func imageResponse(data []byte) *ContentResponse {
	return &ContentResponse{Candidates: []Candidate{{
		Content: &Content{Parts: []Part{
			{Text: "here you go"},
			{InlineData: &Blob{MIMEType: "image/png", Data: data}},
		}},
	}}}
}

func textResponse(text string) *ContentResponse {
	return &ContentResponse{Candidates: []Candidate{{
		Content: &Content{Parts: []Part{{Text: text}}},
	}}}
}

func emptyResponse() *ContentResponse {
	return &ContentResponse{Candidates: []Candidate{{Content: &Content{}}}}
}

// hasModalities reports whether call carries the variant 0 body.
func hasModalities(call Call) bool {
	return call.Body != nil && call.Body.GenerationConfig != nil
}

// recordingObserver collects engine events.
type recordingObserver struct {
	mu       sync.Mutex
	attempts []AttemptEvent
	backoffs []BackoffEvent
	finished []FinishEvent
}

func (o *recordingObserver) AttemptFinished(_ context.Context, e AttemptEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, e)
}

func (o *recordingObserver) BackoffScheduled(_ context.Context, e BackoffEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backoffs = append(o.backoffs, e)
}

func (o *recordingObserver) GenerationFinished(_ context.Context, e FinishEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, e)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noSleep records requested delays without waiting.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *noSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestEngine(transport Transport, opts ...Option) (*Engine, *noSleep) {
	sleeper := &noSleep{}
	base := []Option{WithLogger(discardLogger()), withSleep(sleeper.sleep)}
	return New(transport, append(base, opts...)...), sleeper
}

func testRequest() GenerationRequest {
	return GenerationRequest{
		PersonImage:  []byte("person"),
		GarmentImage: []byte("garment"),
		Style:        "streetwear",
	}
}
