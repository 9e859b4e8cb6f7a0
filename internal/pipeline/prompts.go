package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examforge/examforge/internal/syllabus"
)

// Prompt builders for the model-facing stages. Each returns the instruction
// body only; the structured client appends the schema format instructions.

func extractionPrompt(subject string, topic syllabus.Topic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an educational content analyzer. I'm going to provide you with %s syllabus content, and I need you to extract subtopics along with their learning objectives and other metadata.\n\n", subject)
	fmt.Fprintf(&b, "Here's the syllabus content for the topic:\n%s\n\n", indentJSON(topic))
	b.WriteString("Analyze this content and identify distinct subtopics. For the topic title, get it from the theme/topic table in the content, don't use the supplied one.")
	return b.String()
}

func planningPrompt(subject string, subtopics []Subtopic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an educational assessment planner. I'm going to provide you with a set of %s subtopics, and I need you to create a systematic plan for generating questions that cover these subtopics.\n\n", subject)
	fmt.Fprintf(&b, "Here are the subtopics to cover:\n%s\n\n", indentJSON(subtopics))
	b.WriteString("For each subtopic, create planned questions with the following considerations:\n")
	b.WriteString("1. Balance easy, medium, and hard difficulty levels\n")
	b.WriteString("2. Ensure coverage of all key concepts and learning objectives\n")
	b.WriteString("3. Include at least 9 questions for each subtopic, with the option to add more if needed for comprehensive coverage\n")
	b.WriteString("4. Assign unique IDs to each planned question\n")
	b.WriteString("5. Include a brief concept_area field describing what specific concept the question will test\n\n")
	b.WriteString("Create a comprehensive plan that ensures the full curriculum is properly assessed.")
	return b.String()
}

func generationPrompt(subject, academicClass string, sub Subtopic, batch []PlannedQuestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate multiple-choice %s questions for %s students based on the following planned questions:\n\n", subject, academicClass)
	fmt.Fprintf(&b, "Subtopic: %q within the main topic %q\n\n", sub.SubtopicName, sub.TopicTitle)
	b.WriteString("Here's information about this subtopic:\n")
	fmt.Fprintf(&b, "Learning objectives: %s\n", indentJSON(sub.LearningObjectives))
	fmt.Fprintf(&b, "Key concepts: %s\n", indentJSON(sub.KeyConcepts))
	fmt.Fprintf(&b, "Assessment criteria: %s\n\n", indentJSON(sub.AssessmentCriteria))
	fmt.Fprintf(&b, "Now, generate questions according to this specific plan:\n%s\n\n", indentJSON(batch))
	b.WriteString("For each question:\n")
	b.WriteString("1. Include four answer choices (one correct, three incorrect)\n")
	b.WriteString("2. Provide a detailed explanation for the correct answer\n")
	b.WriteString("3. Include a helpful hint\n")
	b.WriteString("4. Match the difficulty level exactly as specified in the plan\n")
	b.WriteString("5. Address the specific concept area indicated in the plan\n\n")
	b.WriteString("Make sure each question clearly tests the concept area indicated in the plan.\n")
	b.WriteString("Use the exact same question_id as provided in the plan.\n\n")
	fmt.Fprintf(&b, "Generate exactly %d questions matching the specifications in the plan.", len(batch))
	return b.String()
}

// indentJSON renders a value for prompt embedding. The pipeline types are
// plain data and always marshal; the fallback only guards a programming
// error.
func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
