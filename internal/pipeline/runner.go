package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/examforge/examforge/internal/syllabus"
)

// Runner feeds topics from a syllabus source through the pipeline machine,
// one topic per run.
type Runner struct {
	source  syllabus.TopicSource
	machine *Machine
}

// NewRunner creates a topic runner.
func NewRunner(source syllabus.TopicSource, machine *Machine) *Runner {
	return &Runner{source: source, machine: machine}
}

// Process runs up to topicsNum topics and returns the total number of
// questions generated across them. An exhausted source is a clean early
// stop, not an error; anything else is logged with its topic and propagated.
func (r *Runner) Process(ctx context.Context, topicsNum int) (int, error) {
	total := 0
	for i := 0; i < topicsNum; i++ {
		topic, err := r.source.Next(ctx)
		if errors.Is(err, syllabus.ErrNoMoreTopics) {
			slog.Info("syllabus exhausted", "processed", i, "requested", topicsNum)
			return total, nil
		}
		if err != nil {
			slog.Error("fetching next topic failed", "processed", i, "error", err)
			return total, fmt.Errorf("next topic: %w", err)
		}

		st, err := r.machine.Run(ctx, topic)
		if err != nil {
			slog.Error("topic run failed", "topic", topic.Title, "error", err)
			return total, fmt.Errorf("processing topic %q: %w", topic.Title, err)
		}
		total += len(st.Questions)
	}

	slog.Info("topics processed", "count", topicsNum, "questions", total)
	return total, nil
}
