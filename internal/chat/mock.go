package chat

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for offline runs and tests.
// Replies are returned in order; when Responder is set it takes precedence.
type MockClient struct {
	mu        sync.Mutex
	replies   []string
	calls     [][]Message
	Responder func(messages []Message) (string, error)
	// Fallback is returned once replies are exhausted. Empty means
	// ErrMockExhausted.
	Fallback string
}

// NewMockClient creates a mock returning replies in order
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{replies: replies}
}

func (m *MockClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]Message(nil), messages...))

	if m.Responder != nil {
		return m.Responder(messages)
	}
	if len(m.replies) == 0 {
		if m.Fallback != "" {
			return m.Fallback, nil
		}
		return "", ErrMockExhausted
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]
	if reply == "" {
		return NoResponse, nil
	}
	return reply, nil
}

// Calls returns a copy of every conversation received so far
func (m *MockClient) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClient) Provider() string {
	return ProviderMock
}

func (m *MockClient) Model() string {
	return "mock"
}

func (m *MockClient) Close() error {
	return nil
}
