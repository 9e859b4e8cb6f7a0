// Package ai provides a provider-agnostic AI gateway with task-based routing
// and schema-constrained structured responses.
package ai

import "context"

// TaskType defines the kind of AI task for routing purposes.
type TaskType int

const (
	TaskExtraction TaskType = iota
	TaskPlanning
	TaskGeneration
)

func (t TaskType) String() string {
	switch t {
	case TaskExtraction:
		return "extraction"
	case TaskPlanning:
		return "planning"
	case TaskGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema describes the JSON shape a completion must produce. Definition is a
// plain JSON Schema document; each provider maps it onto its native
// structured-output mechanism, tightening it (OpenAI strict mode) or
// reducing it to a JSON-only response hint as the API requires.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
	Schema      *Schema   `json:"-"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
