package output

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
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/examforge/examforge/internal/pipeline"
)

// ErrNotDirectory reports that the configured output path exists but is not
// a directory. Construction fails fast on it so a run never starts against
// an unusable destination.
var ErrNotDirectory = errors.New("output path is not a directory")

// FileStore appends questions to one JSON file per topic inside a directory.
// Files are named <slug>_questions.json after the topic label.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore validates the output directory, creating it when missing.
func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat output directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return &FileStore{dir: dir}, nil
}

// Write appends questions to the topic's file with a read-modify-write
// cycle. A missing file starts from an empty list; a corrupt one is
// abandoned with a warning rather than failing the batch.
func (s *FileStore) Write(_ context.Context, topic string, questions []pipeline.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, Slugify(topic)+"_questions.json")

	existing := []pipeline.Question{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &existing); err != nil {
			slog.Warn("existing question file is not valid JSON, starting over",
				"path", path,
				"error", err,
			)
			existing = existing[:0]
		}
	}

	merged, err := json.MarshalIndent(append(existing, questions...), "", "  ")
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	if err := os.WriteFile(path, merged, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Slugify folds a topic label into a safe file name stem: combining marks
// stripped, lowercased, runs of anything non-alphanumeric collapsed to
// single underscores.
func Slugify(label string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}

	if b.Len() == 0 {
		return "topic"
	}
	return b.String()
}
