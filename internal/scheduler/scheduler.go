// Package scheduler is the C4 TaskScheduler: idempotent register/cancel
// of future lose-by-time tasks, keyed by game-state version (spec.md
// §4.4). The backend is a Redis sorted set scored by execution time plus
// a hash holding each task's payload, generalizing the teacher's
// idle_worker.go ZRangeByScore/ZRem polling loop from "poll Redis and act
// directly" to "poll Redis and hand fired tasks to a channel."
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
)

const (
	tasksZSetKey  = "tasks:try_to_lose_by_time:schedule"
	tasksHashKey  = "tasks:try_to_lose_by_time:payloads"
)

// TaskScheduler is what C7's processors depend on; narrowed to an
// interface so tests can inject an in-memory fake instead of a live
// Redis connection. Run is deliberately excluded: only the task-runner
// boot path needs the firing channel, not the processors.
type TaskScheduler interface {
	Schedule(ctx context.Context, task model.TryToLoseByTimeTask) error
	Unschedule(ctx context.Context, taskID string) error
}

// Scheduler is the store-backed implementation of C4.
type Scheduler struct {
	client *redis.Client
}

func New(client *redis.Client) *Scheduler {
	return &Scheduler{client: client}
}

// Schedule upserts task by id: a prior entry with the same id is
// replaced, matching TryToLoseByTimeTaskID's "new state, new id" design
// that makes this a genuine upsert rather than a collision hazard.
func (s *Scheduler) Schedule(ctx context.Context, task model.TryToLoseByTimeTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "scheduler: marshal task", err)
	}

	score := float64(task.ExecuteAt.UnixNano())
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, tasksZSetKey, redis.Z{Score: score, Member: task.ID})
	pipe.HSet(ctx, tasksHashKey, task.ID, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Wrap(apperr.ErrStore, "scheduler: schedule task", err)
	}
	return nil
}

// Unschedule removes taskID if present; a missing id is not an error.
func (s *Scheduler) Unschedule(ctx context.Context, taskID string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, tasksZSetKey, taskID)
	pipe.HDel(ctx, tasksHashKey, taskID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Wrap(apperr.ErrStore, "scheduler: unschedule task", err)
	}
	return nil
}

// Run polls for due tasks on interval until ctx is done, race-safely
// claiming each one with ZRem before emitting it on the returned channel
// — the same claim-before-act shape as idle_worker.go's "attempt to
// remove (race-safe)" comment, just generalized from a single named set
// to an arbitrary payload hash.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) <-chan model.TryToLoseByTimeTask {
	out := make(chan model.TryToLoseByTimeTask)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.pollDue(ctx, out)
			}
		}
	}()

	return out
}

func (s *Scheduler) pollDue(ctx context.Context, out chan<- model.TryToLoseByTimeTask) {
	now := fmt.Sprintf("%d", time.Now().UnixNano())
	ids, err := s.client.ZRangeByScore(ctx, tasksZSetKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return
	}

	for _, id := range ids {
		removed, err := s.client.ZRem(ctx, tasksZSetKey, id).Result()
		if err != nil || removed == 0 {
			continue
		}

		payload, err := s.client.HGet(ctx, tasksHashKey, id).Bytes()
		s.client.HDel(ctx, tasksHashKey, id)
		if err != nil {
			continue
		}

		var task model.TryToLoseByTimeTask
		if err := json.Unmarshal(payload, &task); err != nil {
			continue
		}

		select {
		case out <- task:
		case <-ctx.Done():
			return
		}
	}
}
