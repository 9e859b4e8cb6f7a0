package output_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/examforge/examforge/internal/output"
	"github.com/examforge/examforge/internal/pipeline"
)

func TestSQLiteStore_WriteAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.db")

	store, err := output.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	err = store.Write(ctx, "Atoms", []pipeline.Question{
		{QuestionID: "q1", Topic: "Atoms", Difficulty: "easy"},
		{QuestionID: "q2", Topic: "Atoms", Difficulty: "hard"},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, "Atoms", []pipeline.Question{{QuestionID: "q3", Topic: "Atoms"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	n, err := store.Count(ctx, "Atoms")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3 (writes append)", n)
	}

	other, err := store.Count(ctx, "Molecules")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if other != 0 {
		t.Errorf("Count(Molecules) = %d, want 0", other)
	}
}

func TestSQLiteStore_WriteEmptyBatch(t *testing.T) {
	store, err := output.NewSQLiteStore(filepath.Join(t.TempDir(), "questions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Write(context.Background(), "Atoms", nil); err != nil {
		t.Errorf("Write() error = %v, want nil for an empty batch", err)
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.db")

	store, err := output.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Write(context.Background(), "Atoms", []pipeline.Question{{QuestionID: "q1"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	store.Close()

	reopened, err := output.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() reopen error = %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(context.Background(), "Atoms")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after reopen, want 1", n)
	}
}
