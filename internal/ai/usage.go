package ai

import "sync"

// TaskUsage is the accumulated model usage for one task type.
type TaskUsage struct {
	Calls  int
	Tokens int64
}

// UsageTracker tallies completion calls and tokens per task type. It is a
// plain in-memory counter; a run logs its snapshot at the end.
type UsageTracker struct {
	mu     sync.RWMutex
	byTask map[TaskType]TaskUsage
}

// NewUsageTracker creates an empty usage tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{
		byTask: make(map[TaskType]TaskUsage),
	}
}

// Record adds one call with the given token count to the task's tally.
// Negative counts are ignored.
func (t *UsageTracker) Record(task TaskType, tokens int) {
	if tokens < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.byTask[task]
	u.Calls++
	u.Tokens += int64(tokens)
	t.byTask[task] = u
}

// Usage returns the tally for a single task type.
func (t *UsageTracker) Usage(task TaskType) TaskUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byTask[task]
}

// Snapshot returns the tallies keyed by task name, for logging.
func (t *UsageTracker) Snapshot() map[string]TaskUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := make(map[string]TaskUsage, len(t.byTask))
	for task, u := range t.byTask {
		snap[task.String()] = u
	}
	return snap
}

// Total sums the tallies across all task types.
func (t *UsageTracker) Total() TaskUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total TaskUsage
	for _, u := range t.byTask {
		total.Calls += u.Calls
		total.Tokens += u.Tokens
	}
	return total
}
