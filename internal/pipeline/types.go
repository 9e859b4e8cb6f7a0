// Package pipeline turns syllabus topics into exam questions by driving a
// generative model through a five-stage state machine: subtopic extraction,
// question planning, batch selection, batch generation, and saving.
package pipeline

// Planned question statuses. A question is "planned" when the plan is
// created and "generating" once batch selection picks it up. "completed" is
// declared for forward compatibility but no stage assigns it; callers must
// not filter on it.
const (
	StatusPlanned    = "planned"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
)

// Subtopic is a unit of syllabus content extracted from a topic, with the
// metadata the planner and generator need.
type Subtopic struct {
	SubtopicName        string   `json:"subtopic_name"`
	TopicTitle          string   `json:"topic_title"`
	AcademicClass       string   `json:"academic_class"`
	Subject             string   `json:"subject"`
	LearningObjectives  []string `json:"learning_objectives"`
	KeyConcepts         []string `json:"key_concepts"`
	AssessmentCriteria  []string `json:"assessment_criteria"`
	SuggestedActivities []string `json:"suggested_activities"`
}

// PlannedQuestion is one entry of a question plan: a specification for a
// question that has not been written yet.
type PlannedQuestion struct {
	QuestionID  string `json:"question_id"`
	Topic       string `json:"topic"`
	Subtopic    string `json:"subtopic"`
	Difficulty  string `json:"difficulty"`
	ConceptArea string `json:"concept_area"`
	Status      string `json:"status"`
}

// QuestionPlan is the planner's output. TotalQuestions is the model's
// declared count and is informational only; every loop bound in the pipeline
// uses len(Planned).
type QuestionPlan struct {
	Planned        []PlannedQuestion `json:"planned_questions"`
	TotalQuestions int               `json:"total_questions"`
}

// Choice is one answer option of a multiple-choice question.
type Choice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Solution explains the correct answer.
type Solution struct {
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
}

// QuestionMetadata records provenance. It is stamped by the generator after
// parsing, never requested from the model.
type QuestionMetadata struct {
	CreatedBy    string            `json:"created_by"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	TimeEstimate map[string]string `json:"time_estimate,omitempty"`
}

// Question is a fully generated multiple-choice exam question.
type Question struct {
	QuestionID       string            `json:"question_id"`
	Text             string            `json:"text"`
	Topic            string            `json:"topic"`
	Category         string            `json:"category"`
	AcademicClass    string            `json:"academic_class"`
	ExaminationLevel string            `json:"examination_level"`
	Difficulty       string            `json:"difficulty"`
	Tags             []string          `json:"tags"`
	Choices          []Choice          `json:"choices"`
	Solution         Solution          `json:"solution"`
	Hint             string            `json:"hint"`
	Metadata         *QuestionMetadata `json:"metadata,omitempty"`
}

// Model response envelopes. The structured client unmarshals validated model
// output into these.

type subtopicsResponse struct {
	Subtopics []Subtopic `json:"subtopics"`
}

type questionsResponse struct {
	Questions []Question `json:"questions"`
}
