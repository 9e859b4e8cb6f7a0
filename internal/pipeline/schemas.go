package pipeline

import "github.com/examforge/examforge/internal/ai"

// Response schemas for the model-facing stages. Metadata is absent from the
// question schema on purpose: provenance is stamped by the generator after
// parsing, never requested from the model.

var subtopicsSchema = ai.Schema{
	Name:        "subtopics_response",
	Description: "Subtopics extracted from syllabus content",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subtopics": map[string]any{
				"type":        "array",
				"description": "The list of extracted subtopics",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"subtopic_name":        map[string]any{"type": "string"},
						"topic_title":          map[string]any{"type": "string"},
						"academic_class":       map[string]any{"type": "string"},
						"subject":              map[string]any{"type": "string"},
						"learning_objectives":  stringArray(),
						"key_concepts":         stringArray(),
						"assessment_criteria":  stringArray(),
						"suggested_activities": stringArray(),
					},
					"required": []any{"subtopic_name", "academic_class", "subject"},
				},
			},
		},
		"required": []any{"subtopics"},
	},
}

var planSchema = ai.Schema{
	Name:        "question_plan",
	Description: "A plan of questions covering the given subtopics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"planned_questions": map[string]any{
				"type":        "array",
				"description": "The list of planned questions",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id":  map[string]any{"type": "string"},
						"topic":        map[string]any{"type": "string"},
						"subtopic":     map[string]any{"type": "string"},
						"difficulty":   map[string]any{"type": "string"},
						"concept_area": map[string]any{"type": "string"},
						"status":       map[string]any{"type": "string"},
					},
					"required": []any{"question_id", "topic", "subtopic", "difficulty"},
				},
			},
			"total_questions": map[string]any{"type": "integer"},
		},
		"required": []any{"planned_questions"},
	},
}

var questionsSchema = ai.Schema{
	Name:        "questions_response",
	Description: "Generated multiple-choice questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":        "array",
				"description": "The list of generated questions",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id":       map[string]any{"type": "string"},
						"text":              map[string]any{"type": "string"},
						"topic":             map[string]any{"type": "string"},
						"category":          map[string]any{"type": "string"},
						"academic_class":    map[string]any{"type": "string"},
						"examination_level": map[string]any{"type": "string"},
						"difficulty":        map[string]any{"type": "string"},
						"tags":              stringArray(),
						"choices": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"text":       map[string]any{"type": "string"},
									"is_correct": map[string]any{"type": "boolean"},
								},
								"required": []any{"text", "is_correct"},
							},
						},
						"solution": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"explanation": map[string]any{"type": "string"},
								"steps":       stringArray(),
							},
							"required": []any{"explanation"},
						},
						"hint": map[string]any{"type": "string"},
					},
					"required": []any{"question_id", "text", "choices", "solution"},
				},
			},
		},
		"required": []any{"questions"},
	},
}

func stringArray() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}
