package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"booking_gateway/internal/adapters/observability"
	"booking_gateway/internal/adapters/queue"
	"booking_gateway/internal/adapters/services"
	"booking_gateway/internal/app"
	"booking_gateway/internal/shared"
)

func main() {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("redis", cfg.RedisAddr).
		Str("queue", cfg.QueueKey).
		Dur("retry_delay", cfg.RetryDelay).
		Msg("compensator starting")

	q := queue.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.QueueKey)
	loy := services.NewLoyalty(cfg.LoyaltyURL, cfg.CallTimeout, cfg.ClientRPS)

	worker := app.NewCompensator(q, loy)
	worker.RetryDelay = cfg.RetryDelay

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
	log.Info().Msg("compensator stopped")
}
