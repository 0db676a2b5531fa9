package build

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskResult records the outcome of one named build task.
type TaskResult struct {
	Name string
	Err  error
}

// Tracker runs named tasks concurrently and reports every outcome. Tasks
// are never cancelled because of a sibling's failure: a failed branch must
// not tear down the other branch mid-write, so all tasks always run to
// completion and settle on their own.
type Tracker struct {
	g  errgroup.Group
	mu sync.Mutex

	results []TaskResult
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Go registers and starts a named task. Results keep registration order
// regardless of completion order.
func (t *Tracker) Go(name string, fn func() error) {
	t.mu.Lock()
	idx := len(t.results)
	t.results = append(t.results, TaskResult{Name: name})
	t.mu.Unlock()

	t.g.Go(func() error {
		err := fn()
		t.mu.Lock()
		t.results[idx].Err = err
		t.mu.Unlock()
		return err
	})
}

// Wait blocks until every task has settled. It returns all results in
// registration order, plus the primary error: the failure of the
// earliest-registered failing task, nil if everything succeeded.
func (t *Tracker) Wait() ([]TaskResult, error) {
	_ = t.g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	results := make([]TaskResult, len(t.results))
	copy(results, t.results)

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}
