// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"sync"

	"github.com/giantswarm/llm-rating-eval/internal/llm"
)

// MockLLMClient is a configurable mock for llm.Client used across test packages.
// It is safe for concurrent use.
type MockLLMClient struct {
	// Responses maps user messages to canned responses.
	Responses map[string]string

	// DefaultResponse is returned when no matching key is found in Responses.
	DefaultResponse string

	// Err, when set, is returned from every call.
	Err error

	// Handler, when set, takes precedence over every other field.
	Handler func(req llm.ChatRequest) (*llm.ChatResponse, error)

	mu          sync.Mutex
	calls       int
	lastRequest llm.ChatRequest
}

func (m *MockLLMClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = req
	m.mu.Unlock()

	if m.Handler != nil {
		return m.Handler(req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if resp, ok := m.Responses[req.UserMessage]; ok {
		return &llm.ChatResponse{Content: resp, Attempts: 1}, nil
	}
	if m.DefaultResponse != "" {
		return &llm.ChatResponse{Content: m.DefaultResponse, Attempts: 1}, nil
	}
	return &llm.ChatResponse{Content: "mock response", Attempts: 1}, nil
}

// Calls returns the number of ChatCompletion invocations.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent ChatRequest for inspection.
func (m *MockLLMClient) LastRequest() llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// EchoClient answers every request with the user message it received.
type EchoClient struct{}

func (EchoClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: req.UserMessage, Attempts: 1}, nil
}
