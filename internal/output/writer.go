// Package output persists generated exam questions. Every store implements
// pipeline.QuestionWriter and shares its append-only contract: a batch is
// written unconditionally, so replaying one duplicates it.
package output

import (
	"context"
	"slices"
	"sync"

	"github.com/examforge/examforge/internal/pipeline"
)

// MemoryStore keeps questions in memory, grouped by topic label.
type MemoryStore struct {
	mu      sync.RWMutex
	byTopic map[string][]pipeline.Question

	// Err, when set, fails every Write. Tests use it to simulate a broken
	// backend.
	Err error
}

// NewMemoryStore creates an empty in-memory question store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTopic: make(map[string][]pipeline.Question)}
}

func (s *MemoryStore) Write(_ context.Context, topic string, questions []pipeline.Question) error {
	if s.Err != nil {
		return s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTopic[topic] = append(s.byTopic[topic], questions...)
	return nil
}

// Questions returns a copy of the questions stored under topic.
func (s *MemoryStore) Questions(topic string) []pipeline.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byTopic[topic])
}

// Total returns the number of stored questions across all topics.
func (s *MemoryStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, qs := range s.byTopic {
		n += len(qs)
	}
	return n
}
