package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
	Chunks   []string
	// StreamErr se entrega como ultimo chunk del stream.
	StreamErr error

	mu       sync.Mutex
	Requests []CompletionRequest
}

func (m *MockClient) record(req CompletionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
}

// LastRequest devuelve el ultimo request recibido.
func (m *MockClient) LastRequest() (CompletionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return CompletionRequest{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.record(req)
	return m.Response, m.Err
}

func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	m.record(req)
	if m.Err != nil {
		return nil, m.Err
	}
	ch := make(chan StreamChunk, len(m.Chunks)+1)
	for _, c := range m.Chunks {
		ch <- StreamChunk{Text: c}
	}
	if m.StreamErr != nil {
		ch <- StreamChunk{Err: m.StreamErr}
	}
	close(ch)
	return ch, nil
}
