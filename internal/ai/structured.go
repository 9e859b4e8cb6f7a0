package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResponseCache stores raw validated model responses keyed by request hash.
// Implementations treat errors as misses; the cache is an optimization, not
// a source of truth.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

// StructuredRequest asks for a model response conforming to a JSON schema.
type StructuredRequest struct {
	Task      TaskType
	Prompt    string
	Schema    Schema
	MaxTokens int
}

// StructuredClientConfig holds dependencies for a StructuredClient.
type StructuredClientConfig struct {
	Router     *Router
	Cache      ResponseCache // optional response cache
	Usage      *UsageTracker // optional per-task usage tally
	Transcript *Transcript   // optional raw prompt/response log, nil-safe
}

// StructuredClient turns prompts into schema-validated Go values. A request
// flows prompt + format instructions -> cache lookup -> router completion ->
// code fence stripping -> schema validation -> unmarshal. Any failure comes
// back as an error; callers decide whether to degrade or abort.
type StructuredClient struct {
	router     *Router
	cache      ResponseCache
	usage      *UsageTracker
	transcript *Transcript
}

// NewStructuredClient creates a structured response client.
func NewStructuredClient(cfg StructuredClientConfig) *StructuredClient {
	return &StructuredClient{
		router:     cfg.Router,
		cache:      cfg.Cache,
		usage:      cfg.Usage,
		transcript: cfg.Transcript,
	}
}

// Generate requests a completion for req and unmarshals the validated JSON
// response into out.
func (c *StructuredClient) Generate(ctx context.Context, req StructuredRequest, out any) error {
	prompt := req.Prompt + "\n\n" + FormatInstructions(req.Schema)
	key := requestKey(req.Task, prompt, req.Schema)

	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, key); ok {
			if err := decodeValidated(raw, req.Schema, out); err == nil {
				slog.Debug("structured response served from cache",
					"task", req.Task.String(),
					"schema", req.Schema.Name,
				)
				return nil
			}
			slog.Warn("cached response no longer valid, regenerating", "key", key)
		}
	}

	c.transcript.RecordPrompt(req.Task, prompt)

	resp, err := c.router.Complete(ctx, CompletionRequest{
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: req.MaxTokens,
		Task:      req.Task,
		Schema:    &req.Schema,
	})
	if err != nil {
		return fmt.Errorf("completion: %w", err)
	}

	c.transcript.RecordResponse(req.Task, resp.Content)
	if c.usage != nil {
		c.usage.Record(req.Task, resp.TotalTokens())
	}

	raw := StripCodeFences(resp.Content)
	if err := decodeValidated(raw, req.Schema, out); err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Set(ctx, key, raw)
	}
	return nil
}

// decodeValidated checks raw against the schema definition and unmarshals it
// into out.
func decodeValidated(raw string, schema Schema, out any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.Definition),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("response does not conform to %s schema: %s", schema.Name, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// requestKey hashes the task, the full prompt, and the schema into a stable
// cache key.
func requestKey(task TaskType, prompt string, schema Schema) string {
	h := sha256.New()
	h.Write([]byte(task.String()))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(schema.Name))
	h.Write([]byte{0})
	h.Write([]byte(marshalDefinition(schema.Definition)))
	return hex.EncodeToString(h.Sum(nil))
}
