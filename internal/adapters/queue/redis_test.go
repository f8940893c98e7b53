package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"booking_gateway/internal/adapters/queue"
	"booking_gateway/internal/domain"
)

func newTestQueue(t *testing.T) (*queue.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return queue.NewFromClient(c, "compensations"), mr
}

var testTask = domain.CompensationTask{Type: domain.TaskUpdateLoyalty, Username: "alice", Delta: -1}

func TestEnqueueDequeueAck(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testTask); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if n, _ := q.Len(ctx); n != 1 {
		t.Fatalf("len = %d, want 1", n)
	}

	task, handle, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if task != testTask {
		t.Fatalf("task = %+v, want %+v", task, testTask)
	}
	// Delivered but unacked: gone from the main list, parked in processing.
	if n, _ := q.Len(ctx); n != 0 {
		t.Fatalf("len = %d, want 0", n)
	}
	if got, _ := mr.List("compensations:processing"); len(got) != 1 {
		t.Fatalf("processing = %v, want one entry", got)
	}

	if err := q.Ack(ctx, handle); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if got, _ := mr.List("compensations:processing"); len(got) != 0 {
		t.Fatalf("processing after ack = %v, want empty", got)
	}
}

func TestDequeueEmptyTimesOut(t *testing.T) {
	q, _ := newTestQueue(t)

	_, _, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, domain.ErrNoTask) {
		t.Fatalf("err = %v, want ErrNoTask", err)
	}
}

func TestRequeueBumpsAttempts(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testTask); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, handle, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Requeue(ctx, task, handle); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if got, _ := mr.List("compensations:processing"); len(got) != 0 {
		t.Fatalf("processing after requeue = %v, want empty", got)
	}

	again, _, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("second dequeue: %v", err)
	}
	if again.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", again.Attempts)
	}
	if again.Username != "alice" || again.Delta != -1 {
		t.Fatalf("task = %+v", again)
	}
}

func TestRecoverPendingRequeuesStrandedTasks(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	// Simulate a worker crash: two deliveries sit in processing, unacked.
	_ = q.Enqueue(ctx, testTask)
	_ = q.Enqueue(ctx, domain.CompensationTask{Type: domain.TaskUpdateLoyalty, Username: "bob", Delta: -1})
	if _, _, err := q.Dequeue(ctx, 100*time.Millisecond); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if _, _, err := q.Dequeue(ctx, 100*time.Millisecond); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	n, err := q.RecoverPending(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if n != 2 {
		t.Fatalf("recovered = %d, want 2", n)
	}
	if l, _ := q.Len(ctx); l != 2 {
		t.Fatalf("len = %d, want 2 after recovery", l)
	}

	// Oldest delivery comes back first.
	task, _, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue after recover: %v", err)
	}
	if task.Username != "alice" {
		t.Fatalf("user = %s, want alice first", task.Username)
	}
}

func TestDequeueDropsPoisonPayloads(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	mr.Lpush("compensations", "not json")
	if _, _, err := q.Dequeue(ctx, 100*time.Millisecond); err == nil || errors.Is(err, domain.ErrNoTask) {
		t.Fatalf("err = %v, want decode failure", err)
	}
	if got, _ := mr.List("compensations:processing"); len(got) != 0 {
		t.Fatalf("poison payload left in processing: %v", got)
	}
}

func TestFIFOAcrossMultipleTasks(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	users := []string{"a", "b", "c"}
	for _, u := range users {
		_ = q.Enqueue(ctx, domain.CompensationTask{Type: domain.TaskUpdateLoyalty, Username: u, Delta: -1})
	}
	for _, want := range users {
		task, handle, err := q.Dequeue(ctx, 100*time.Millisecond)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if task.Username != want {
			t.Fatalf("user = %s, want %s", task.Username, want)
		}
		_ = q.Ack(ctx, handle)
	}
}
