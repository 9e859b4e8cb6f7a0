package ai

import "context"

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response    string
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}

// ScriptedProvider replays a fixed sequence of responses and records every
// request, for tests that drive multi-call flows. Once the script runs out
// it keeps returning the final response.
type ScriptedProvider struct {
	Responses []string
	Err       error
	Requests  []CompletionRequest
}

func (s *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return CompletionResponse{}, s.Err
	}
	if len(s.Responses) == 0 {
		return CompletionResponse{Model: "scripted"}, nil
	}
	idx := len(s.Requests) - 1
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	content := s.Responses[idx]
	return CompletionResponse{
		Content:      content,
		Model:        "scripted",
		InputTokens:  10,
		OutputTokens: len(content),
	}, nil
}

func (s *ScriptedProvider) HealthCheck(_ context.Context) error {
	return s.Err
}
