package mind

import (
	"context"
	"sync"
	"time"
)

// mockClient is a configurable PathwayClient fake, grounded on the
// teacher's mockSender (internal/router/engine_test.go): one scripted
// response, error and delay plus a call counter, letting tests script
// failure, latency, and content without a real network dependency.
type mockClient struct {
	mu       sync.Mutex
	resp     ThinkingResponse
	err      error
	delay    time.Duration
	calls    int
	onCall   func(prompt string)
	closeErr error
	closed   bool
}

func newMockClient(content string) *mockClient {
	return &mockClient{resp: ThinkingResponse{Content: content}}
}

func (m *mockClient) Generate(ctx context.Context, prompt string) (ThinkingResponse, error) {
	m.mu.Lock()
	m.calls++
	if m.onCall != nil {
		m.onCall(prompt)
	}
	resp, err, delay := m.resp, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ThinkingResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStreamingClient additionally implements StreamingPathwayClient.
type mockStreamingClient struct {
	mockClient
	chunks []StreamChunk
}

func (m *mockStreamingClient) Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk, len(m.chunks))
	for _, c := range m.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func newSpecWithClient(name string, client PathwayClient) PathwaySpec {
	return PathwaySpec{Name: name, EndpointType: "local", Model: "test-model", Client: client}
}
