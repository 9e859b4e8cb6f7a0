package pipeline

import (
	"slices"

	"github.com/examforge/examforge/internal/syllabus"
)

// DefaultBatchSize is how many planned questions a single generation call
// covers when no size is configured.
const DefaultBatchSize = 5

// State is the working memory of one topic run. Stages receive it by value
// and never mutate it; they return tagged results that the machine folds in.
type State struct {
	Topic            syllabus.Topic
	Subtopics        []Subtopic
	Plan             QuestionPlan
	PlanPosition     int
	BatchSize        int
	CurrentBatch     []PlannedQuestion
	CurrentQuestions []Question
	Questions        []Question
}

// NewState seeds the state for one topic. A non-positive batch size falls
// back to DefaultBatchSize.
func NewState(topic syllabus.Topic, batchSize int) State {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return State{Topic: topic, BatchSize: batchSize}
}

// StageResult is a tagged update produced by a pipeline stage. Each result
// type carries only the fields its stage may change; apply folds the update
// into a copy of the state and leaves the input value untouched. The
// interface is sealed so the merge rules live in exactly one place.
type StageResult interface {
	apply(State) State
}

// ExtractionResult replaces the state's subtopic list.
type ExtractionResult struct {
	Subtopics []Subtopic
}

func (r ExtractionResult) apply(st State) State {
	st.Subtopics = r.Subtopics
	return st
}

// PlanningResult replaces the state's question plan.
type PlanningResult struct {
	Plan QuestionPlan
}

func (r PlanningResult) apply(st State) State {
	st.Plan = r.Plan
	return st
}

// SelectionResult installs the next batch and advances the plan cursor.
// Applying it stamps StatusGenerating onto the selected span of a cloned
// plan slice so older state values keep their view of the plan.
type SelectionResult struct {
	Batch        []PlannedQuestion
	PlanPosition int
}

func (r SelectionResult) apply(st State) State {
	lo := st.PlanPosition
	st.CurrentBatch = r.Batch
	st.PlanPosition = r.PlanPosition
	if len(r.Batch) > 0 {
		planned := slices.Clone(st.Plan.Planned)
		for i := lo; i < r.PlanPosition && i < len(planned); i++ {
			planned[i].Status = StatusGenerating
		}
		st.Plan.Planned = planned
	}
	return st
}

// GenerationResult replaces the questions drafted for the current batch.
type GenerationResult struct {
	Questions []Question
}

func (r GenerationResult) apply(st State) State {
	st.CurrentQuestions = r.Questions
	return st
}

// SavingResult carries the questions that made it through saving. It is the
// one result that concatenates instead of replacing: Appended is added to
// the state's cumulative question list.
type SavingResult struct {
	Appended []Question
}

func (r SavingResult) apply(st State) State {
	if len(r.Appended) == 0 {
		return st
	}
	st.Questions = append(slices.Clone(st.Questions), r.Appended...)
	return st
}
