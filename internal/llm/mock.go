package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for tests and offline runs.
//
// Responses registered with OnPurpose are served to calls whose context
// carries that purpose, so concurrent extraction and image analysis get
// their own scripts. Everything else is answered from the shared FIFO queue.
// An exhausted queue yields ErrProviderUnavailable.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	byPurpose map[string][]MockResponse

	Calls    []Request
	Purposes []string
}

// NewMockProvider creates a MockProvider with the given shared responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses, byPurpose: make(map[string][]MockResponse)}
}

// OnPurpose queues responses for calls made with WithPurpose(ctx, purpose).
func (m *MockProvider) OnPurpose(purpose string, responses ...MockResponse) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPurpose[purpose] = append(m.byPurpose[purpose], responses...)
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	m.Purposes = append(m.Purposes, purpose)

	var resp MockResponse
	switch q := m.byPurpose[purpose]; {
	case len(q) > 0:
		resp, m.byPurpose[purpose] = q[0], q[1:]
	case len(m.responses) > 0:
		resp, m.responses = m.responses[0], m.responses[1:]
	default:
		return nil, &ErrProviderUnavailable{}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a response to the shared queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsFor returns the requests made under purpose, in call order.
func (m *MockProvider) CallsFor(purpose string) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for i, p := range m.Purposes {
		if p == purpose {
			out = append(out, m.Calls[i])
		}
	}
	return out
}
