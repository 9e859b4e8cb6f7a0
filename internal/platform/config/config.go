// Package config loads application configuration from environment variables.
// All variables use the EXAMFORGE_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Syllabus SyllabusConfig
	Pipeline PipelineConfig
	Output   OutputConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Log      LogConfig
}

// SyllabusConfig holds syllabus source settings.
type SyllabusConfig struct {
	Path        string
	TopicMarker string
}

// PipelineConfig holds question pipeline settings.
type PipelineConfig struct {
	Subject          string
	AcademicClass    string
	ExaminationLevel string
	Topics           int
	BatchSize        int
	TranscriptDir    string // empty disables the prompt transcript
}

// OutputConfig holds question persistence settings.
type OutputConfig struct {
	Backend    string // "file", "sqlite" or "postgres"
	Dir        string
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis/Dragonfly response cache settings.
type CacheConfig struct {
	Enabled  bool
	URL      string
	TTLHours int
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Google    GoogleConfig
	Ollama    OllamaConfig
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Output backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Load reads configuration from environment variables with EXAMFORGE_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Syllabus: SyllabusConfig{
			Path:        envStr("EXAMFORGE_SYLLABUS_PATH", "./syllabus.json"),
			TopicMarker: envStr("EXAMFORGE_SYLLABUS_TOPIC_MARKER", "Core element"),
		},
		Pipeline: PipelineConfig{
			Subject:          envStr("EXAMFORGE_SUBJECT", "Chemistry"),
			AcademicClass:    envStr("EXAMFORGE_ACADEMIC_CLASS", "Form 1"),
			ExaminationLevel: envStr("EXAMFORGE_EXAMINATION_LEVEL", "MSCE"),
			Topics:           envInt("EXAMFORGE_TOPICS", 1),
			BatchSize:        envInt("EXAMFORGE_BATCH_SIZE", 5),
			TranscriptDir:    envStr("EXAMFORGE_TRANSCRIPT_DIR", ""),
		},
		Output: OutputConfig{
			Backend:    envStr("EXAMFORGE_OUTPUT_BACKEND", BackendFile),
			Dir:        envStr("EXAMFORGE_OUTPUT_DIR", "./questions"),
			SQLitePath: envStr("EXAMFORGE_OUTPUT_SQLITE_PATH", "./questions.db"),
		},
		Database: DatabaseConfig{
			URL:      envStr("EXAMFORGE_DATABASE_URL", ""),
			MaxConns: envInt("EXAMFORGE_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("EXAMFORGE_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			Enabled:  envBool("EXAMFORGE_CACHE_ENABLED", false),
			URL:      envStr("EXAMFORGE_CACHE_URL", "redis://localhost:6379"),
			TTLHours: envInt("EXAMFORGE_CACHE_TTL_HOURS", 24),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("EXAMFORGE_AI_OPENAI_API_KEY", ""),
				Model:  envStr("EXAMFORGE_AI_OPENAI_MODEL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("EXAMFORGE_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("EXAMFORGE_AI_ANTHROPIC_MODEL", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("EXAMFORGE_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("EXAMFORGE_AI_GOOGLE_MODEL", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("EXAMFORGE_AI_OLLAMA_ENABLED", false),
				URL:     envStr("EXAMFORGE_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("EXAMFORGE_AI_OLLAMA_MODEL", ""),
			},
		},
		Log: LogConfig{
			Level:  envStr("EXAMFORGE_LOG_LEVEL", "info"),
			Format: envStr("EXAMFORGE_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("EXAMFORGE_BATCH_SIZE must be > 0, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.Topics <= 0 {
		return fmt.Errorf("EXAMFORGE_TOPICS must be > 0, got %d", c.Pipeline.Topics)
	}

	switch c.Output.Backend {
	case BackendFile, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("EXAMFORGE_OUTPUT_BACKEND must be one of file, sqlite, postgres, got %q", c.Output.Backend)
	}
	if c.Output.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("EXAMFORGE_DATABASE_URL is required for the postgres backend")
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
