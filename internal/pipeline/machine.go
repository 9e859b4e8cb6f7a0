package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/examforge/examforge/internal/syllabus"
)

// Decision is the outcome of the batch decision stage.
type Decision int

const (
	// DecisionEnd finishes the topic run.
	DecisionEnd Decision = iota
	// DecisionNextBatch loops back to batch selection.
	DecisionNextBatch
)

func (d Decision) String() string {
	switch d {
	case DecisionNextBatch:
		return "next_batch"
	default:
		return "end"
	}
}

// Stages is the capability surface the machine drives. Extraction, planning,
// generation, and saving may call out to a model or storage, so they take a
// context and may fail; batch selection and the continuation decision are
// pure functions of the state. Stage errors are reserved for unexpected
// failures: a model response that merely fails to parse degrades to an empty
// result inside the stage.
type Stages interface {
	ExtractSubtopics(ctx context.Context, st State) (ExtractionResult, error)
	PlanQuestions(ctx context.Context, st State) (PlanningResult, error)
	SelectBatch(st State) SelectionResult
	GenerateQuestions(ctx context.Context, st State) (GenerationResult, error)
	SaveQuestions(ctx context.Context, st State) (SavingResult, error)
	Decide(st State) Decision
}

// MachineConfig holds dependencies for the pipeline machine.
type MachineConfig struct {
	Stages    Stages
	BatchSize int         // planned questions per generation call (default 5)
	Events    EventLogger // run event sink (default NopEventLogger)
}

// Machine drives one topic at a time through the pipeline: extract, plan,
// then a select/generate/save loop until the decision stage ends the run.
// The machine owns the merge of stage results into the state and the
// safeguard against a stalled plan cursor.
type Machine struct {
	stages    Stages
	batchSize int
	events    EventLogger
}

// NewMachine creates a pipeline machine.
func NewMachine(cfg MachineConfig) *Machine {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Machine{
		stages:    cfg.Stages,
		batchSize: batchSize,
		events:    events,
	}
}

// Run processes a single topic and returns the final state. The error is
// non-nil only for unexpected failures such as context cancellation; an
// uncooperative model produces empty stage results and a clean finish with
// fewer (or zero) questions.
func (m *Machine) Run(ctx context.Context, topic syllabus.Topic) (State, error) {
	runID := uuid.NewString()
	st := NewState(topic, m.batchSize)

	slog.Info("pipeline run started",
		"run_id", runID,
		"topic", topic.Title,
		"batch_size", st.BatchSize,
	)
	m.logEvent(runID, topic.Title, "run_started", map[string]any{"batch_size": st.BatchSize})

	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("run aborted: %w", err)
	}

	ext, err := m.stages.ExtractSubtopics(ctx, st)
	if err != nil {
		return st, fmt.Errorf("extracting subtopics: %w", err)
	}
	st = ext.apply(st)
	m.logEvent(runID, topic.Title, "subtopics_extracted", map[string]any{"count": len(st.Subtopics)})

	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("run aborted: %w", err)
	}

	plan, err := m.stages.PlanQuestions(ctx, st)
	if err != nil {
		return st, fmt.Errorf("planning questions: %w", err)
	}
	st = plan.apply(st)
	m.logEvent(runID, topic.Title, "plan_created", map[string]any{"planned": len(st.Plan.Planned)})

	// The loop safeguard is scoped to this run: if the decision stage asks
	// for another batch but the plan cursor has not moved since the last
	// iteration, the run is forced to end instead of spinning forever.
	lastPosition := -1
	for {
		if err := ctx.Err(); err != nil {
			return st, fmt.Errorf("run aborted: %w", err)
		}

		sel := m.stages.SelectBatch(st)
		st = sel.apply(st)
		m.logEvent(runID, topic.Title, "batch_selected", map[string]any{
			"position": st.PlanPosition,
			"size":     len(st.CurrentBatch),
		})

		gen, err := m.stages.GenerateQuestions(ctx, st)
		if err != nil {
			return st, fmt.Errorf("generating questions: %w", err)
		}
		st = gen.apply(st)
		m.logEvent(runID, topic.Title, "questions_generated", map[string]any{"count": len(st.CurrentQuestions)})

		sav, err := m.stages.SaveQuestions(ctx, st)
		if err != nil {
			return st, fmt.Errorf("saving questions: %w", err)
		}
		st = sav.apply(st)
		m.logEvent(runID, topic.Title, "questions_saved", map[string]any{
			"appended": len(sav.Appended),
			"total":    len(st.Questions),
		})

		if m.stages.Decide(st) != DecisionNextBatch {
			break
		}
		if st.PlanPosition == lastPosition {
			slog.Warn("plan position did not advance, forcing end",
				"run_id", runID,
				"topic", topic.Title,
				"position", lastPosition,
			)
			break
		}
		lastPosition = st.PlanPosition
	}

	slog.Info("pipeline run finished",
		"run_id", runID,
		"topic", topic.Title,
		"questions", len(st.Questions),
	)
	m.logEvent(runID, topic.Title, "run_finished", map[string]any{"questions": len(st.Questions)})

	return st, nil
}

func (m *Machine) logEvent(runID, topic, eventType string, data map[string]any) {
	err := m.events.LogEvent(Event{
		RunID:     runID,
		Topic:     topic,
		EventType: eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Debug("event log failed", "type", eventType, "error", err)
	}
}
