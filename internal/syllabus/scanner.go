package syllabus

import "strings"

// DefaultTopicMarker is the paragraph text that starts a new topic in the
// syllabus layouts this tool was built for.
const DefaultTopicMarker = "Core element"

// ScanTopics splits a flat element sequence into topics. A paragraph whose
// text contains the marker starts a new topic; the marker paragraph itself
// stays as the topic's first element. Content before the first marker is
// dropped. Empty paragraphs never enter a topic.
func ScanTopics(elements []Element, marker string) []Topic {
	if marker == "" {
		marker = DefaultTopicMarker
	}

	var topics []Topic
	var current *Topic

	for _, el := range elements {
		if el.Type == ElementParagraph && strings.TrimSpace(el.Text) == "" {
			continue
		}

		if title, ok := markerTitle(el, marker); ok {
			if current != nil {
				topics = append(topics, *current)
			}
			current = &Topic{Title: title, Elements: []Element{el}}
			continue
		}

		if current != nil {
			current.Elements = append(current.Elements, el)
		}
	}

	if current != nil {
		topics = append(topics, *current)
	}
	return topics
}

// markerTitle reports whether the element starts a topic and, if so, returns
// the cleaned title: the paragraph text with the marker removed and common
// separators trimmed.
func markerTitle(el Element, marker string) (string, bool) {
	if el.Type != ElementParagraph {
		return "", false
	}
	text := strings.TrimSpace(el.Text)
	if !strings.Contains(text, marker) {
		return "", false
	}
	title := strings.ReplaceAll(text, marker, "")
	title = strings.Trim(strings.TrimSpace(title), " -:*")
	return strings.TrimSpace(title), true
}
