package pipeline_test

import (
	"context"
	"testing"

	"github.com/examforge/examforge/internal/pipeline"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := pipeline.NewMemoryEventLogger()

	err := logger.LogEvent(pipeline.Event{
		RunID:     "run-1",
		Topic:     "Acids",
		EventType: "run_started",
		Data: map[string]any{
			"batch_size": 5,
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != "run_started" {
		t.Errorf("EventType = %q, want run_started", events[0].EventType)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresEventType(t *testing.T) {
	logger := pipeline.NewMemoryEventLogger()

	if err := logger.LogEvent(pipeline.Event{RunID: "run-1"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestMemoryEventLogger_EventsReturnsCopy(t *testing.T) {
	logger := pipeline.NewMemoryEventLogger()
	logger.LogEvent(pipeline.Event{RunID: "run-1", EventType: "run_started"})

	events := logger.Events()
	events[0].EventType = "tampered"

	if got := logger.Events()[0].EventType; got != "run_started" {
		t.Errorf("EventType = %q, want run_started after mutating the returned slice", got)
	}
}

func TestNopEventLogger_LogEvent(t *testing.T) {
	var logger pipeline.NopEventLogger

	if err := logger.LogEvent(pipeline.Event{EventType: "anything"}); err != nil {
		t.Errorf("LogEvent() error = %v, want nil", err)
	}
}

func TestPostgresEventLogger_NilPool(t *testing.T) {
	if _, err := pipeline.NewPostgresEventLogger(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil pool")
	}

	var logger *pipeline.PostgresEventLogger
	if err := logger.LogEvent(pipeline.Event{RunID: "run-1", EventType: "run_started"}); err == nil {
		t.Fatal("expected error from nil logger")
	}
}
