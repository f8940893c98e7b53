package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"booking_gateway/internal/domain"
)

// Compensator is the single long-lived worker draining the deferred
// compensation queue. It calls the loyalty service directly, not through the
// circuit breaker: a queued task already represents a failed attempt and is
// not throttled again by breaker state.
type Compensator struct {
	tasks   domain.CompensationConsumer
	loyalty domain.LoyaltyService

	// RetryDelay is how long a failed delivery is held before requeueing.
	RetryDelay time.Duration
	// PollWait bounds each blocking dequeue so ctx cancellation is noticed.
	PollWait time.Duration
	// ErrBackoff is the pause after a queue transport error before resuming.
	ErrBackoff time.Duration
}

func NewCompensator(tasks domain.CompensationConsumer, loyalty domain.LoyaltyService) *Compensator {
	return &Compensator{
		tasks:      tasks,
		loyalty:    loyalty,
		RetryDelay: 10 * time.Second,
		PollWait:   5 * time.Second,
		ErrBackoff: 3 * time.Second,
	}
}

// Run consumes until ctx is canceled, reconnecting after any transport
// failure. Delivery is at-least-once: a task acked only after its effect is
// applied may be applied twice when a crash lands between the two.
func (c *Compensator) Run(ctx context.Context) {
	if n, err := c.tasks.RecoverPending(ctx); err != nil {
		log.Error().Err(err).Msg("recover pending compensations failed")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("recovered stranded compensations")
	}

	for {
		if ctx.Err() != nil {
			return
		}
		task, handle, err := c.tasks.Dequeue(ctx, c.PollWait)
		if errors.Is(err, domain.ErrNoTask) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("compensation dequeue failed, backing off")
			sleepCtx(ctx, c.ErrBackoff)
			continue
		}
		c.handle(ctx, task, handle)
	}
}

func (c *Compensator) handle(ctx context.Context, task domain.CompensationTask, handle string) {
	switch task.Type {
	case domain.TaskUpdateLoyalty:
		if err := c.loyalty.UpdateLoyalty(ctx, task.Username, task.Delta); err != nil {
			log.Warn().Err(err).
				Str("user", task.Username).
				Int("delta", task.Delta).
				Int("attempts", task.Attempts).
				Msg("deferred loyalty update failed, will redeliver")
			sleepCtx(ctx, c.RetryDelay)
			if rerr := c.tasks.Requeue(ctx, task, handle); rerr != nil {
				log.Error().Err(rerr).Msg("requeue failed, task stays in processing until recovery")
			}
			return
		}
		if err := c.tasks.Ack(ctx, handle); err != nil {
			log.Error().Err(err).Msg("ack failed, task may be redelivered")
			return
		}
		log.Info().
			Str("user", task.Username).
			Int("delta", task.Delta).
			Msg("deferred loyalty update applied")
	default:
		// Unknown kind: drop it rather than wedge the loop forever.
		log.Error().Str("type", task.Type).Msg("unknown compensation task, dropping")
		_ = c.tasks.Ack(ctx, handle)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
