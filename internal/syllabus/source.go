package syllabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNoMoreTopics is returned by a TopicSource when it is exhausted.
var ErrNoMoreTopics = errors.New("no more topics")

// TopicSource yields syllabus topics in document order.
type TopicSource interface {
	Next(ctx context.Context) (Topic, error)
}

// SliceSource serves topics from an in-memory slice.
type SliceSource struct {
	mu     sync.Mutex
	topics []Topic
	pos    int
}

// NewSliceSource creates a source over the given topics.
func NewSliceSource(topics ...Topic) *SliceSource {
	return &SliceSource{topics: topics}
}

func (s *SliceSource) Next(ctx context.Context) (Topic, error) {
	if err := ctx.Err(); err != nil {
		return Topic{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.topics) {
		return Topic{}, ErrNoMoreTopics
	}
	topic := s.topics[s.pos]
	s.pos++
	return topic, nil
}

// Len returns the total number of topics the source holds.
func (s *SliceSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics)
}

// document is the on-disk shape of a pre-extracted syllabus: the flat element
// stream of the source document, before topic splitting.
type document struct {
	Elements []Element `json:"elements" yaml:"elements"`
}

// NewFileSource parses a syllabus file and returns a source over its topics.
// The format is chosen by extension: .json and .yaml/.yml carry a flat
// element stream under an "elements" key; .xlsx is read sheet by sheet.
// Parsing is eager so an unreadable file fails before any pipeline run.
func NewFileSource(path, marker string) (*SliceSource, error) {
	var (
		elements []Element
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		elements, err = loadJSONElements(path)
	case ".yaml", ".yml":
		elements, err = loadYAMLElements(path)
	case ".xlsx":
		elements, err = loadXLSXElements(path)
	default:
		return nil, fmt.Errorf("unsupported syllabus format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("loading syllabus: %w", err)
	}

	topics := ScanTopics(elements, marker)
	slog.Info("syllabus parsed", "path", path, "elements", len(elements), "topics", len(topics))
	return NewSliceSource(topics...), nil
}

func loadJSONElements(path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Elements, nil
}

func loadYAMLElements(path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Elements, nil
}
