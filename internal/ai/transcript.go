package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transcript appends raw prompts and responses to a plain-text file, one
// file per run. It exists for debugging model behavior; a nil *Transcript is
// valid and records nothing.
type Transcript struct {
	file *os.File
	mu   sync.Mutex
}

// NewTranscript creates the transcript directory if needed and opens a
// timestamped transcript file inside it.
func NewTranscript(dir string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	t := &Transcript{file: file}
	t.logf("=== Transcript started %s ===\n\n", time.Now().Format(time.RFC3339))
	return t, nil
}

// RecordPrompt logs an outgoing prompt.
func (t *Transcript) RecordPrompt(task TaskType, prompt string) {
	if t == nil {
		return
	}
	t.logf("=== PROMPT (%s) ===\n%s\n\n", task.String(), prompt)
}

// RecordResponse logs a raw model response.
func (t *Transcript) RecordResponse(task TaskType, response string) {
	if t == nil {
		return
	}
	t.logf("=== RESPONSE (%s) ===\n%s\n\n", task.String(), response)
}

func (t *Transcript) logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(t.file, "[%s] ", timestamp)
	fmt.Fprintf(t.file, format, args...)
	t.file.Sync()
}

// Close finishes and closes the transcript file.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}

	t.logf("=== Transcript complete %s ===\n", time.Now().Format(time.RFC3339))

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
