// Package queue implements the deferred compensation channel on a durable
// Redis list. Producers LPUSH; the worker BLMOVEs each task into a
// processing list and only LREMs it after the compensating call succeeds,
// giving acknowledgment-gated, at-least-once delivery.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"booking_gateway/internal/adapters/observability"
	"booking_gateway/internal/domain"
)

type Redis struct {
	c          *redis.Client
	key        string
	processing string
}

func New(addr, pass string, db int, key string) *Redis {
	return &Redis{
		c:          redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		key:        key,
		processing: key + ":processing",
	}
}

// NewFromClient is used by tests that share a miniredis-backed client.
func NewFromClient(c *redis.Client, key string) *Redis {
	return &Redis{c: c, key: key, processing: key + ":processing"}
}

func (q *Redis) Enqueue(ctx context.Context, task domain.CompensationTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := q.c.LPush(ctx, q.key, b).Err(); err != nil {
		return err
	}
	observability.ObserveQueue(q.key, "enqueued")
	return nil
}

// Dequeue blocks up to wait for a task, moving it into the processing list.
// The raw payload is returned alongside the decoded task; it is the ack
// handle for Ack/Requeue.
func (q *Redis) Dequeue(ctx context.Context, wait time.Duration) (domain.CompensationTask, string, error) {
	raw, err := q.c.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", wait).Result()
	if err == redis.Nil {
		return domain.CompensationTask{}, "", domain.ErrNoTask
	}
	if err != nil {
		return domain.CompensationTask{}, "", err
	}

	var task domain.CompensationTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		// Poison payload: drop it from processing so it cannot wedge the
		// worker forever.
		_ = q.c.LRem(ctx, q.processing, 1, raw).Err()
		return domain.CompensationTask{}, "", err
	}
	return task, raw, nil
}

// Ack removes a delivered task from the processing list once its effect has
// been applied.
func (q *Redis) Ack(ctx context.Context, raw string) error {
	if err := q.c.LRem(ctx, q.processing, 1, raw).Err(); err != nil {
		return err
	}
	observability.ObserveQueue(q.key, "acked")
	return nil
}

// Requeue puts a failed delivery back at the end of the main list with its
// attempt counter bumped.
func (q *Redis) Requeue(ctx context.Context, task domain.CompensationTask, raw string) error {
	task.Attempts++
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	pipe := q.c.TxPipeline()
	pipe.LRem(ctx, q.processing, 1, raw)
	pipe.LPush(ctx, q.key, b)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	observability.ObserveQueue(q.key, "requeued")
	return nil
}

// RecoverPending moves tasks stranded in the processing list (a worker died
// mid-delivery) back onto the main list. Called once at worker startup; this
// is where at-least-once redelivery after a crash comes from.
func (q *Redis) RecoverPending(ctx context.Context) (int, error) {
	n := 0
	for {
		raw, err := q.c.RPop(ctx, q.processing).Result()
		if err == redis.Nil {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := q.c.RPush(ctx, q.key, raw).Err(); err != nil {
			return n, err
		}
		n++
		observability.ObserveQueue(q.key, "recovered")
	}
}

// Len reports the number of tasks waiting on the main list.
func (q *Redis) Len(ctx context.Context) (int64, error) {
	return q.c.LLen(ctx, q.key).Result()
}
