package scheduler

import (
	"context"
	"sync"

	"connectfour-engine/internal/model"
)

// Fake is an in-memory TaskScheduler for unit-testing C7 without a live
// Redis connection.
type Fake struct {
	mu    sync.Mutex
	tasks map[string]model.TryToLoseByTimeTask
}

func NewFake() *Fake {
	return &Fake{tasks: make(map[string]model.TryToLoseByTimeTask)}
}

func (f *Fake) Schedule(ctx context.Context, task model.TryToLoseByTimeTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = task
	return nil
}

func (f *Fake) Unschedule(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, taskID)
	return nil
}

// Has reports whether taskID is currently scheduled — for test
// assertions only.
func (f *Fake) Has(taskID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[taskID]
	return ok
}

// Len reports how many tasks are currently scheduled.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}
