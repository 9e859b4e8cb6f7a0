package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/examforge/examforge/internal/ai"
	"github.com/examforge/examforge/internal/output"
	"github.com/examforge/examforge/internal/pipeline"
	"github.com/examforge/examforge/internal/platform/cache"
	"github.com/examforge/examforge/internal/platform/config"
	"github.com/examforge/examforge/internal/platform/database"
	"github.com/examforge/examforge/internal/syllabus"
)

func main() {
	topics := flag.Int("topics", 0, "number of syllabus topics to process (overrides EXAMFORGE_TOPICS)")
	check := flag.Bool("check", false, "health-check configured providers and backends, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *topics > 0 {
		cfg.Pipeline.Topics = *topics
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, *check); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

type namedProvider struct {
	name     string
	provider ai.Provider
}

func run(ctx context.Context, cfg *config.Config, check bool) error {
	providers, err := buildProviders(cfg.AI)
	if err != nil {
		return err
	}

	router := ai.NewRouter()
	for _, p := range providers {
		router.Register(p.name, p.provider)
	}

	// The database pool is required by the postgres backend and otherwise
	// optional: when reachable it also carries run events.
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(ctx, database.Config{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		switch {
		case err != nil && cfg.Output.Backend == config.BackendPostgres:
			return fmt.Errorf("connecting to database: %w", err)
		case err != nil:
			slog.Warn("database unavailable, run events disabled", "error", err)
		default:
			defer db.Close()
		}
	}

	var responseCache ai.ResponseCache
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		cacheClient, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, responses will not be cached", "error", err)
		} else {
			defer cacheClient.Close()
			responseCache = cache.NewResponseStore(cacheClient, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		}
	}

	if check {
		return healthCheck(ctx, providers, db, cacheClient)
	}

	writer, closeWriter, err := buildWriter(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeWriter()

	source, err := syllabus.NewFileSource(cfg.Syllabus.Path, cfg.Syllabus.TopicMarker)
	if err != nil {
		return fmt.Errorf("opening syllabus: %w", err)
	}

	var transcript *ai.Transcript
	if cfg.Pipeline.TranscriptDir != "" {
		transcript, err = ai.NewTranscript(cfg.Pipeline.TranscriptDir)
		if err != nil {
			slog.Warn("transcript disabled", "error", err)
		} else {
			defer transcript.Close()
		}
	}

	usage := ai.NewUsageTracker()
	client := ai.NewStructuredClient(ai.StructuredClientConfig{
		Router:     router,
		Cache:      responseCache,
		Usage:      usage,
		Transcript: transcript,
	})

	var events pipeline.EventLogger = pipeline.NopEventLogger{}
	if db != nil {
		pg, err := pipeline.NewPostgresEventLogger(ctx, db.Pool)
		if err != nil {
			slog.Warn("event logging disabled", "error", err)
		} else {
			events = pg
		}
	}

	generator := pipeline.NewGenerator(pipeline.GeneratorConfig{
		Client:           client,
		Writer:           writer,
		Subject:          cfg.Pipeline.Subject,
		AcademicClass:    cfg.Pipeline.AcademicClass,
		ExaminationLevel: cfg.Pipeline.ExaminationLevel,
	})
	machine := pipeline.NewMachine(pipeline.MachineConfig{
		Stages:    generator,
		BatchSize: cfg.Pipeline.BatchSize,
		Events:    events,
	})
	runner := pipeline.NewRunner(source, machine)

	questions, err := runner.Process(ctx, cfg.Pipeline.Topics)
	logUsage(usage)
	if err != nil {
		return err
	}

	slog.Info("generation complete", "questions", questions)
	return nil
}

func buildProviders(cfg config.AIConfig) ([]namedProvider, error) {
	var providers []namedProvider

	if cfg.OpenAI.APIKey != "" {
		var opts []ai.OpenAIOption
		if cfg.OpenAI.Model != "" {
			opts = append(opts, ai.WithOpenAIModel(cfg.OpenAI.Model))
		}
		providers = append(providers, namedProvider{"openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...)})
	}
	if cfg.Anthropic.APIKey != "" {
		var opts []ai.AnthropicOption
		if cfg.Anthropic.Model != "" {
			opts = append(opts, ai.WithAnthropicModel(cfg.Anthropic.Model))
		}
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		providers = append(providers, namedProvider{"anthropic", p})
	}
	if cfg.Google.APIKey != "" {
		var opts []ai.GoogleOption
		if cfg.Google.Model != "" {
			opts = append(opts, ai.WithGoogleModel(cfg.Google.Model))
		}
		providers = append(providers, namedProvider{"google", ai.NewGoogleProvider(cfg.Google.APIKey, opts...)})
	}
	if cfg.Ollama.Enabled {
		var opts []ai.OllamaOption
		if cfg.Ollama.Model != "" {
			opts = append(opts, ai.WithOllamaModel(cfg.Ollama.Model))
		}
		providers = append(providers, namedProvider{"ollama", ai.NewOllamaProvider(cfg.Ollama.URL, opts...)})
	}

	if len(providers) == 0 {
		return nil, errors.New("no AI providers configured")
	}
	return providers, nil
}

func buildWriter(ctx context.Context, cfg *config.Config, db *database.DB) (pipeline.QuestionWriter, func(), error) {
	switch cfg.Output.Backend {
	case config.BackendFile:
		store, err := output.NewFileStore(cfg.Output.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("output directory: %w", err)
		}
		return store, func() {}, nil

	case config.BackendSQLite:
		store, err := output.NewSQLiteStore(cfg.Output.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite output: %w", err)
		}
		return store, func() { store.Close() }, nil

	case config.BackendPostgres:
		if db == nil {
			return nil, nil, errors.New("postgres backend requires a reachable database")
		}
		store, err := output.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres output: %w", err)
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown output backend %q", cfg.Output.Backend)
	}
}

func healthCheck(ctx context.Context, providers []namedProvider, db *database.DB, cacheClient *cache.Cache) error {
	failed := false
	for _, p := range providers {
		if err := p.provider.HealthCheck(ctx); err != nil {
			slog.Error("provider unhealthy", "provider", p.name, "error", err)
			failed = true
			continue
		}
		slog.Info("provider healthy", "provider", p.name)
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			slog.Error("database unhealthy", "error", err)
			failed = true
		} else {
			slog.Info("database healthy")
		}
	}
	if cacheClient != nil {
		if err := cacheClient.HealthCheck(ctx); err != nil {
			slog.Error("cache unhealthy", "error", err)
			failed = true
		} else {
			slog.Info("cache healthy")
		}
	}

	if failed {
		return errors.New("health check failed")
	}
	slog.Info("all checks passed")
	return nil
}

func logUsage(usage *ai.UsageTracker) {
	total := usage.Total()
	if total.Calls == 0 {
		return
	}
	slog.Info("model usage", "calls", total.Calls, "tokens", total.Tokens)
	for task, u := range usage.Snapshot() {
		slog.Info("model usage by task", "task", task, "calls", u.Calls, "tokens", u.Tokens)
	}
}
