package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/examforge/examforge/internal/ai"
)

type fakeCache struct {
	entries map[string]string
	sets    int
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key, value string) {
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = value
	c.sets++
}

func answerSchema() ai.Schema {
	return ai.Schema{
		Name: "answer_response",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer": map[string]any{"type": "string"},
			},
			"required": []any{"answer"},
		},
	}
}

func TestStructuredClient_Generate(t *testing.T) {
	mock := ai.NewMockProvider("```json\n{\"answer\": \"42\"}\n```")
	router := ai.NewRouter()
	router.Register("mock", mock)
	usage := ai.NewUsageTracker()

	client := ai.NewStructuredClient(ai.StructuredClientConfig{
		Router: router,
		Usage:  usage,
	})

	var out struct {
		Answer string `json:"answer"`
	}
	err := client.Generate(context.Background(), ai.StructuredRequest{
		Task:   ai.TaskGeneration,
		Prompt: "What is the answer?",
		Schema: answerSchema(),
	}, &out)

	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Answer != "42" {
		t.Errorf("Answer = %q, want %q", out.Answer, "42")
	}

	if mock.LastRequest == nil {
		t.Fatal("provider was never called")
	}
	if mock.LastRequest.Schema == nil || mock.LastRequest.Schema.Name != "answer_response" {
		t.Error("completion request should carry the schema")
	}
	if !strings.Contains(mock.LastRequest.Messages[0].Content, "output schema") {
		t.Error("prompt should include format instructions")
	}

	u := usage.Usage(ai.TaskGeneration)
	if u.Calls != 1 || u.Tokens == 0 {
		t.Errorf("usage = %+v, want one call with tokens", u)
	}
}

func TestStructuredClient_Generate_InvalidResponse(t *testing.T) {
	mock := ai.NewMockProvider(`{"answer": 7}`)
	router := ai.NewRouter()
	router.Register("mock", mock)

	client := ai.NewStructuredClient(ai.StructuredClientConfig{Router: router})

	var out struct {
		Answer string `json:"answer"`
	}
	err := client.Generate(context.Background(), ai.StructuredRequest{
		Task:   ai.TaskGeneration,
		Prompt: "What is the answer?",
		Schema: answerSchema(),
	}, &out)

	if err == nil {
		t.Fatal("Generate() should reject a response that violates the schema")
	}
	if !strings.Contains(err.Error(), "answer_response") {
		t.Errorf("error should name the schema, got: %v", err)
	}
}

func TestStructuredClient_Generate_ProviderError(t *testing.T) {
	router := ai.NewRouter()
	router.Register("mock", &ai.MockProvider{Err: errors.New("down")})

	client := ai.NewStructuredClient(ai.StructuredClientConfig{Router: router})

	var out map[string]any
	err := client.Generate(context.Background(), ai.StructuredRequest{
		Task:   ai.TaskPlanning,
		Prompt: "plan",
		Schema: answerSchema(),
	}, &out)

	if err == nil {
		t.Fatal("Generate() should propagate provider failure")
	}
}

func TestStructuredClient_Generate_CacheRoundTrip(t *testing.T) {
	cache := &fakeCache{}
	req := ai.StructuredRequest{
		Task:   ai.TaskExtraction,
		Prompt: "extract",
		Schema: answerSchema(),
	}

	// First call populates the cache.
	router := ai.NewRouter()
	router.Register("mock", ai.NewMockProvider(`{"answer": "cached"}`))
	client := ai.NewStructuredClient(ai.StructuredClientConfig{Router: router, Cache: cache})

	var out struct {
		Answer string `json:"answer"`
	}
	if err := client.Generate(context.Background(), req, &out); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	// Second client has no working provider; the cache must answer.
	broken := ai.NewRouter()
	broken.Register("mock", &ai.MockProvider{Err: errors.New("down")})
	client = ai.NewStructuredClient(ai.StructuredClientConfig{Router: broken, Cache: cache})

	out.Answer = ""
	if err := client.Generate(context.Background(), req, &out); err != nil {
		t.Fatalf("Generate() with warm cache error = %v", err)
	}
	if out.Answer != "cached" {
		t.Errorf("Answer = %q, want %q", out.Answer, "cached")
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1 (hit should not rewrite)", cache.sets)
	}
}

func TestStructuredClient_Generate_InvalidCacheEntryRegenerates(t *testing.T) {
	mock := ai.NewMockProvider(`{"answer": "fresh"}`)
	router := ai.NewRouter()
	router.Register("mock", mock)

	cache := &poisonedCache{}
	client := ai.NewStructuredClient(ai.StructuredClientConfig{Router: router, Cache: cache})

	var out struct {
		Answer string `json:"answer"`
	}
	err := client.Generate(context.Background(), ai.StructuredRequest{
		Task:   ai.TaskExtraction,
		Prompt: "extract",
		Schema: answerSchema(),
	}, &out)

	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Answer != "fresh" {
		t.Errorf("Answer = %q, want %q (invalid cache entry should regenerate)", out.Answer, "fresh")
	}
	if mock.LastRequest == nil {
		t.Error("provider should be called when the cached entry is invalid")
	}
}

// poisonedCache reports a hit with garbage for every key.
type poisonedCache struct{}

func (poisonedCache) Get(context.Context, string) (string, bool) { return "not json", true }

func (poisonedCache) Set(context.Context, string, string) {}
