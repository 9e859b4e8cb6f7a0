package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/examforge/examforge/internal/ai"
)

// QuestionWriter persists a batch of generated questions under a topic label.
// Writers are append-only: every call appends unconditionally, so replaying a
// batch duplicates it.
type QuestionWriter interface {
	Write(ctx context.Context, topic string, questions []Question) error
}

// NopWriter discards every batch. It backs runs where questions are only
// needed in memory.
type NopWriter struct{}

func (NopWriter) Write(context.Context, string, []Question) error { return nil }

// GeneratorConfig holds dependencies for a Generator.
type GeneratorConfig struct {
	Client           *ai.StructuredClient
	Writer           QuestionWriter // default NopWriter
	Subject          string         // default "Chemistry"
	AcademicClass    string         // default "Form 1"
	ExaminationLevel string         // default "MSCE"
}

// Generator implements the pipeline stages against a structured model client
// and a question writer. Model-facing stages degrade to empty results when
// the model cannot produce valid output; errors are reserved for context
// cancellation.
type Generator struct {
	client           *ai.StructuredClient
	writer           QuestionWriter
	subject          string
	academicClass    string
	examinationLevel string
}

// NewGenerator creates a stage generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	writer := cfg.Writer
	if writer == nil {
		writer = NopWriter{}
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "Chemistry"
	}
	academicClass := cfg.AcademicClass
	if academicClass == "" {
		academicClass = "Form 1"
	}
	examinationLevel := cfg.ExaminationLevel
	if examinationLevel == "" {
		examinationLevel = "MSCE"
	}
	return &Generator{
		client:           cfg.Client,
		writer:           writer,
		subject:          subject,
		academicClass:    academicClass,
		examinationLevel: examinationLevel,
	}
}

// ExtractSubtopics asks the model to break the topic into subtopics. A
// subtopic missing its topic title is backfilled with the state's topic.
func (g *Generator) ExtractSubtopics(ctx context.Context, st State) (ExtractionResult, error) {
	var resp subtopicsResponse
	err := g.client.Generate(ctx, ai.StructuredRequest{
		Task:   ai.TaskExtraction,
		Prompt: extractionPrompt(g.subject, st.Topic),
		Schema: subtopicsSchema,
	}, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return ExtractionResult{}, ctx.Err()
		}
		slog.Error("subtopic extraction failed", "topic", st.Topic.Title, "error", err)
		return ExtractionResult{}, nil
	}

	subtopics := resp.Subtopics
	for i := range subtopics {
		if subtopics[i].TopicTitle == "" {
			subtopics[i].TopicTitle = st.Topic.Title
		}
	}

	slog.Info("subtopics extracted", "topic", st.Topic.Title, "count", len(subtopics))
	return ExtractionResult{Subtopics: subtopics}, nil
}

// PlanQuestions asks the model for a question plan covering the extracted
// subtopics. With no subtopics the model is not called at all. Planned
// questions come back normalized: blank IDs are replaced with generated ones
// and the status is reset to planned regardless of what the model claimed.
func (g *Generator) PlanQuestions(ctx context.Context, st State) (PlanningResult, error) {
	if len(st.Subtopics) == 0 {
		slog.Warn("no subtopics to plan questions for", "topic", st.Topic.Title)
		return PlanningResult{}, nil
	}

	var plan QuestionPlan
	err := g.client.Generate(ctx, ai.StructuredRequest{
		Task:   ai.TaskPlanning,
		Prompt: planningPrompt(g.subject, st.Subtopics),
		Schema: planSchema,
	}, &plan)
	if err != nil {
		if ctx.Err() != nil {
			return PlanningResult{}, ctx.Err()
		}
		slog.Error("question planning failed", "topic", st.Topic.Title, "error", err)
		return PlanningResult{}, nil
	}

	for i := range plan.Planned {
		if plan.Planned[i].QuestionID == "" {
			plan.Planned[i].QuestionID = uuid.NewString()
		}
		plan.Planned[i].Status = StatusPlanned
	}

	slog.Info("question plan created",
		"topic", st.Topic.Title,
		"planned", len(plan.Planned),
		"declared_total", plan.TotalQuestions,
	)
	return PlanningResult{Plan: plan}, nil
}

// SelectBatch picks the next plan span for generation. It is pure: the
// returned result carries a cloned, status-stamped batch and the advanced
// cursor, and the cursor only ever moves forward, so a span is selected at
// most once.
func (g *Generator) SelectBatch(st State) SelectionResult {
	total := len(st.Plan.Planned)
	if total == 0 {
		slog.Warn("batch selection with empty plan", "topic", st.Topic.Title)
		return SelectionResult{}
	}
	if st.PlanPosition < 0 || st.PlanPosition > total {
		slog.Warn("plan cursor out of range, clamping",
			"topic", st.Topic.Title,
			"position", st.PlanPosition,
			"planned", total,
		)
	}

	lo, hi := batchSpan(total, st.PlanPosition, st.BatchSize)
	batch := make([]PlannedQuestion, hi-lo)
	copy(batch, st.Plan.Planned[lo:hi])
	for i := range batch {
		batch[i].Status = StatusGenerating
	}

	return SelectionResult{Batch: batch, PlanPosition: hi}
}

// GenerateQuestions turns the current batch into full questions with one
// structured model call. Batches are assumed single-subtopic because the
// planner groups by subtopic; the first item's subtopic governs and a
// straddling batch is logged.
func (g *Generator) GenerateQuestions(ctx context.Context, st State) (GenerationResult, error) {
	batch := st.CurrentBatch
	if len(batch) == 0 {
		slog.Warn("no batch to generate questions for", "topic", st.Topic.Title)
		return GenerationResult{}, nil
	}

	sub, ok := findSubtopic(st.Subtopics, batch[0].Subtopic)
	if !ok {
		slog.Error("batch references unknown subtopic",
			"topic", st.Topic.Title,
			"subtopic", batch[0].Subtopic,
		)
		return GenerationResult{}, nil
	}
	for _, pq := range batch[1:] {
		if pq.Subtopic != sub.SubtopicName {
			slog.Warn("batch straddles subtopics, first item governs",
				"subtopic", sub.SubtopicName,
				"straddling", pq.Subtopic,
			)
			break
		}
	}

	var resp questionsResponse
	err := g.client.Generate(ctx, ai.StructuredRequest{
		Task:   ai.TaskGeneration,
		Prompt: generationPrompt(g.subject, g.academicClass, sub, batch),
		Schema: questionsSchema,
	}, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return GenerationResult{}, ctx.Err()
		}
		slog.Error("question generation failed",
			"topic", st.Topic.Title,
			"subtopic", sub.SubtopicName,
			"error", err,
		)
		return GenerationResult{}, nil
	}

	questions := g.reconcile(resp.Questions, batch)
	slog.Info("questions generated",
		"topic", st.Topic.Title,
		"subtopic", sub.SubtopicName,
		"requested", len(batch),
		"kept", len(questions),
	)
	return GenerationResult{Questions: questions}, nil
}

// reconcile aligns generated questions with the planned batch. A question
// whose ID is not in the planned set gets the planned ID at its position, a
// mismatch worth logging but not failing on. Surplus questions beyond the
// batch are dropped, shortfalls are kept as-is. Every surviving question is
// stamped with provenance metadata, and label fields the model left empty
// are backfilled from the plan and the configured subject settings.
func (g *Generator) reconcile(generated []Question, batch []PlannedQuestion) []Question {
	if len(generated) > len(batch) {
		slog.Warn("model returned surplus questions, dropping extras",
			"requested", len(batch),
			"received", len(generated),
		)
		generated = generated[:len(batch)]
	} else if len(generated) < len(batch) {
		slog.Warn("model returned fewer questions than planned",
			"requested", len(batch),
			"received", len(generated),
		)
	}

	plannedIDs := make(map[string]bool, len(batch))
	for _, pq := range batch {
		plannedIDs[pq.QuestionID] = true
	}

	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]Question, 0, len(generated))
	for i, q := range generated {
		if !plannedIDs[q.QuestionID] {
			slog.Warn("generated question ID not in plan, using planned ID",
				"generated_id", q.QuestionID,
				"planned_id", batch[i].QuestionID,
			)
			q.QuestionID = batch[i].QuestionID
		}
		if q.Topic == "" {
			q.Topic = batch[i].Topic
		}
		if q.Difficulty == "" {
			q.Difficulty = batch[i].Difficulty
		}
		if q.AcademicClass == "" {
			q.AcademicClass = g.academicClass
		}
		if q.ExaminationLevel == "" {
			q.ExaminationLevel = g.examinationLevel
		}
		q.Metadata = &QuestionMetadata{
			CreatedBy: "examforge",
			CreatedAt: now,
			UpdatedAt: now,
		}
		out = append(out, q)
	}
	return out
}

// SaveQuestions writes the current batch through the question writer. An
// empty batch skips the writer entirely. A writer failure is logged and the
// batch still counts toward the in-memory result, so one bad write does not
// lose the run.
func (g *Generator) SaveQuestions(ctx context.Context, st State) (SavingResult, error) {
	if len(st.CurrentQuestions) == 0 {
		return SavingResult{}, nil
	}

	topic := st.CurrentQuestions[0].Topic
	if err := g.writer.Write(ctx, topic, st.CurrentQuestions); err != nil {
		if ctx.Err() != nil {
			return SavingResult{}, ctx.Err()
		}
		slog.Error("saving questions failed",
			"topic", topic,
			"count", len(st.CurrentQuestions),
			"error", err,
		)
	} else {
		slog.Info("questions saved", "topic", topic, "count", len(st.CurrentQuestions))
	}

	return SavingResult{Appended: st.CurrentQuestions}, nil
}

// Decide ends the run once the plan cursor has consumed every planned
// question.
func (g *Generator) Decide(st State) Decision {
	if len(st.Plan.Planned) == 0 || st.PlanPosition >= len(st.Plan.Planned) {
		return DecisionEnd
	}
	return DecisionNextBatch
}

func findSubtopic(subtopics []Subtopic, name string) (Subtopic, bool) {
	for _, sub := range subtopics {
		if sub.SubtopicName == name {
			return sub, true
		}
	}
	return Subtopic{}, false
}
