package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/examforge/examforge/internal/pipeline"
	"github.com/examforge/examforge/internal/syllabus"
)

// stubStages implements pipeline.Stages with overridable behavior per stage.
// Unset stages return zero results; an unset decision ends the run.
type stubStages struct {
	extract     func(ctx context.Context, st pipeline.State) (pipeline.ExtractionResult, error)
	plan        func(ctx context.Context, st pipeline.State) (pipeline.PlanningResult, error)
	selectBatch func(st pipeline.State) pipeline.SelectionResult
	generate    func(ctx context.Context, st pipeline.State) (pipeline.GenerationResult, error)
	save        func(ctx context.Context, st pipeline.State) (pipeline.SavingResult, error)
	decide      func(st pipeline.State) pipeline.Decision
}

func (s *stubStages) ExtractSubtopics(ctx context.Context, st pipeline.State) (pipeline.ExtractionResult, error) {
	if s.extract == nil {
		return pipeline.ExtractionResult{}, nil
	}
	return s.extract(ctx, st)
}

func (s *stubStages) PlanQuestions(ctx context.Context, st pipeline.State) (pipeline.PlanningResult, error) {
	if s.plan == nil {
		return pipeline.PlanningResult{}, nil
	}
	return s.plan(ctx, st)
}

func (s *stubStages) SelectBatch(st pipeline.State) pipeline.SelectionResult {
	if s.selectBatch == nil {
		return pipeline.SelectionResult{}
	}
	return s.selectBatch(st)
}

func (s *stubStages) GenerateQuestions(ctx context.Context, st pipeline.State) (pipeline.GenerationResult, error) {
	if s.generate == nil {
		return pipeline.GenerationResult{}, nil
	}
	return s.generate(ctx, st)
}

func (s *stubStages) SaveQuestions(ctx context.Context, st pipeline.State) (pipeline.SavingResult, error) {
	if s.save == nil {
		return pipeline.SavingResult{}, nil
	}
	return s.save(ctx, st)
}

func (s *stubStages) Decide(st pipeline.State) pipeline.Decision {
	if s.decide == nil {
		return pipeline.DecisionEnd
	}
	return s.decide(st)
}

// planWalker returns stages that plan n questions and walk the plan in
// batch-size steps, drafting one question per planned entry.
func planWalker(n int) *stubStages {
	return &stubStages{
		plan: func(_ context.Context, _ pipeline.State) (pipeline.PlanningResult, error) {
			planned := make([]pipeline.PlannedQuestion, n)
			for i := range planned {
				planned[i] = pipeline.PlannedQuestion{
					QuestionID: fmt.Sprintf("q%d", i+1),
					Status:     pipeline.StatusPlanned,
				}
			}
			return pipeline.PlanningResult{Plan: pipeline.QuestionPlan{Planned: planned, TotalQuestions: n}}, nil
		},
		selectBatch: func(st pipeline.State) pipeline.SelectionResult {
			lo := st.PlanPosition
			hi := lo + st.BatchSize
			if hi > len(st.Plan.Planned) {
				hi = len(st.Plan.Planned)
			}
			return pipeline.SelectionResult{Batch: st.Plan.Planned[lo:hi], PlanPosition: hi}
		},
		generate: func(_ context.Context, st pipeline.State) (pipeline.GenerationResult, error) {
			qs := make([]pipeline.Question, len(st.CurrentBatch))
			for i, pq := range st.CurrentBatch {
				qs[i] = pipeline.Question{QuestionID: pq.QuestionID}
			}
			return pipeline.GenerationResult{Questions: qs}, nil
		},
		save: func(_ context.Context, st pipeline.State) (pipeline.SavingResult, error) {
			return pipeline.SavingResult{Appended: st.CurrentQuestions}, nil
		},
		decide: func(st pipeline.State) pipeline.Decision {
			if st.PlanPosition >= len(st.Plan.Planned) {
				return pipeline.DecisionEnd
			}
			return pipeline.DecisionNextBatch
		},
	}
}

func TestMachine_Run_StageOrder(t *testing.T) {
	var calls []string
	stages := &stubStages{
		extract: func(_ context.Context, _ pipeline.State) (pipeline.ExtractionResult, error) {
			calls = append(calls, "extract")
			return pipeline.ExtractionResult{Subtopics: []pipeline.Subtopic{{SubtopicName: "Indicators"}}}, nil
		},
		plan: func(_ context.Context, st pipeline.State) (pipeline.PlanningResult, error) {
			calls = append(calls, "plan")
			if len(st.Subtopics) != 1 {
				t.Errorf("planning stage saw %d subtopics, want 1", len(st.Subtopics))
			}
			return pipeline.PlanningResult{Plan: pipeline.QuestionPlan{
				Planned: []pipeline.PlannedQuestion{{QuestionID: "q1"}},
			}}, nil
		},
		selectBatch: func(st pipeline.State) pipeline.SelectionResult {
			calls = append(calls, "select")
			return pipeline.SelectionResult{Batch: st.Plan.Planned, PlanPosition: 1}
		},
		generate: func(_ context.Context, st pipeline.State) (pipeline.GenerationResult, error) {
			calls = append(calls, "generate")
			if len(st.CurrentBatch) != 1 {
				t.Errorf("generation stage saw %d batch entries, want 1", len(st.CurrentBatch))
			}
			return pipeline.GenerationResult{Questions: []pipeline.Question{{QuestionID: "q1"}}}, nil
		},
		save: func(_ context.Context, st pipeline.State) (pipeline.SavingResult, error) {
			calls = append(calls, "save")
			return pipeline.SavingResult{Appended: st.CurrentQuestions}, nil
		},
		decide: func(_ pipeline.State) pipeline.Decision {
			calls = append(calls, "decide")
			return pipeline.DecisionEnd
		},
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages})
	st, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"extract", "plan", "select", "generate", "save", "decide"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if len(st.Questions) != 1 {
		t.Errorf("len(Questions) = %d, want 1", len(st.Questions))
	}
}

func TestMachine_Run_LoopsUntilPlanConsumed(t *testing.T) {
	stages := planWalker(12)
	generates := 0
	inner := stages.generate
	stages.generate = func(ctx context.Context, st pipeline.State) (pipeline.GenerationResult, error) {
		generates++
		return inner(ctx, st)
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages, BatchSize: 5})
	st, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if generates != 3 {
		t.Errorf("generation calls = %d, want 3 (batches of 5, 5, 2)", generates)
	}
	if len(st.Questions) != 12 {
		t.Errorf("len(Questions) = %d, want 12", len(st.Questions))
	}
	if st.PlanPosition != 12 {
		t.Errorf("PlanPosition = %d, want 12", st.PlanPosition)
	}
}

func TestMachine_Run_ForcesEndWhenCursorStalls(t *testing.T) {
	generates := 0
	stages := &stubStages{
		plan: func(_ context.Context, _ pipeline.State) (pipeline.PlanningResult, error) {
			return pipeline.PlanningResult{Plan: pipeline.QuestionPlan{
				Planned: []pipeline.PlannedQuestion{{QuestionID: "q1"}, {QuestionID: "q2"}},
			}}, nil
		},
		// A broken selection that never advances the cursor.
		selectBatch: func(st pipeline.State) pipeline.SelectionResult {
			return pipeline.SelectionResult{Batch: st.Plan.Planned[:1], PlanPosition: st.PlanPosition}
		},
		generate: func(_ context.Context, _ pipeline.State) (pipeline.GenerationResult, error) {
			generates++
			return pipeline.GenerationResult{}, nil
		},
		decide: func(_ pipeline.State) pipeline.Decision {
			return pipeline.DecisionNextBatch
		},
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages})
	_, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if generates != 2 {
		t.Errorf("generation calls = %d, want 2 (a stalled cursor must force the end)", generates)
	}
}

func TestMachine_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extracted := false
	stages := &stubStages{
		extract: func(_ context.Context, _ pipeline.State) (pipeline.ExtractionResult, error) {
			extracted = true
			return pipeline.ExtractionResult{}, nil
		},
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages})
	_, err := m.Run(ctx, syllabus.Topic{Title: "Acids"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if extracted {
		t.Error("extraction ran under a cancelled context")
	}
}

func TestMachine_Run_StageErrorPropagates(t *testing.T) {
	boom := errors.New("model exploded")
	stages := planWalker(2)
	stages.generate = func(_ context.Context, _ pipeline.State) (pipeline.GenerationResult, error) {
		return pipeline.GenerationResult{}, boom
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages})
	_, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "generating questions") {
		t.Errorf("error = %q, should name the failing stage", err)
	}
}

func TestMachine_Run_EventSequence(t *testing.T) {
	events := pipeline.NewMemoryEventLogger()
	m := pipeline.NewMachine(pipeline.MachineConfig{
		Stages:    planWalker(2),
		BatchSize: 5,
		Events:    events,
	})

	_, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"run_started",
		"subtopics_extracted",
		"plan_created",
		"batch_selected",
		"questions_generated",
		"questions_saved",
		"run_finished",
	}
	got := events.Events()
	if len(got) != len(want) {
		t.Fatalf("logged %d events, want %d", len(got), len(want))
	}
	for i, ev := range got {
		if ev.EventType != want[i] {
			t.Errorf("event[%d].EventType = %q, want %q", i, ev.EventType, want[i])
		}
		if ev.RunID != got[0].RunID {
			t.Errorf("event[%d].RunID = %q, want %q (one run, one ID)", i, ev.RunID, got[0].RunID)
		}
		if ev.Topic != "Acids" {
			t.Errorf("event[%d].Topic = %q, want Acids", i, ev.Topic)
		}
	}
}

func TestNewMachine_DefaultBatchSize(t *testing.T) {
	var seen int
	stages := &stubStages{
		extract: func(_ context.Context, st pipeline.State) (pipeline.ExtractionResult, error) {
			seen = st.BatchSize
			return pipeline.ExtractionResult{}, nil
		},
	}

	m := pipeline.NewMachine(pipeline.MachineConfig{Stages: stages})
	if _, err := m.Run(context.Background(), syllabus.Topic{Title: "Acids"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if seen != pipeline.DefaultBatchSize {
		t.Errorf("state batch size = %d, want %d", seen, pipeline.DefaultBatchSize)
	}
}

func TestDecision_String(t *testing.T) {
	if got := pipeline.DecisionNextBatch.String(); got != "next_batch" {
		t.Errorf("DecisionNextBatch.String() = %q, want next_batch", got)
	}
	if got := pipeline.DecisionEnd.String(); got != "end" {
		t.Errorf("DecisionEnd.String() = %q, want end", got)
	}
}
