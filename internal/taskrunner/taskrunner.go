// Package taskrunner is C8: it dequeues scheduler firings and submits
// them as TryToLoseByTimeCommands against the TryToLoseByTime processor
// (spec.md §4.8). The worker-pool shape is a generalization of the
// teacher's idle_worker.go ticker loop from "poll Redis and act
// directly" to "drain a channel of already-claimed tasks and dispatch
// each to a bounded pool of goroutines."
package taskrunner

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/command"
	"connectfour-engine/internal/model"
)

// Runner drains a channel of fired tasks and submits each to the
// TryToLoseByTime processor, on a bounded pool of goroutines.
type Runner struct {
	processors *command.Processors
	logger     *zap.Logger
	poolSize   int
}

func New(processors *command.Processors, logger *zap.Logger, poolSize int) *Runner {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Runner{processors: processors, logger: logger, poolSize: poolSize}
}

// Run consumes tasks until the channel closes or ctx is done, blocking
// until every in-flight submission has returned.
func (r *Runner) Run(ctx context.Context, tasks <-chan model.TryToLoseByTimeTask) {
	var wg sync.WaitGroup
	for i := 0; i < r.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, tasks)
		}()
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context, tasks <-chan model.TryToLoseByTimeTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			r.submit(ctx, task)
		}
	}
}

// submit swallows GameDoesNotExist — the game may have been pruned by
// the store's inactivity TTL long after the task was scheduled — and
// retries any other error up to maxSubmitAttempts times in all, since the
// scheduler has already removed the task when it claimed it (spec.md
// §4.8, §7). A stale retry is harmless: the processor's stateId check
// turns it into a no-op.
func (r *Runner) submit(ctx context.Context, task model.TryToLoseByTimeTask) {
	const maxSubmitAttempts = 5
	cmd := command.TryToLoseByTimeCommand{
		GameID:      task.GameID,
		GameStateID: task.GameStateID,
		OperationID: task.OperationID,
	}

	for attempt := 1; ; attempt++ {
		err := r.processors.TryToLoseByTime(ctx, cmd)
		if err == nil {
			return
		}
		if errors.Is(err, apperr.ErrGameDoesNotExist) {
			r.logger.Debug("try_to_lose_by_time task for a game that no longer exists",
				zap.String("game_id", task.GameID.Hex()),
			)
			return
		}
		if attempt >= maxSubmitAttempts || ctx.Err() != nil {
			r.logger.Error("try_to_lose_by_time task failed",
				zap.String("game_id", task.GameID.Hex()),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}
	}
}
