package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	server "booking_gateway/internal/adapters/http_server"
	"booking_gateway/internal/adapters/observability"
	"booking_gateway/internal/adapters/queue"
	"booking_gateway/internal/adapters/services"
	"booking_gateway/internal/app"
	"booking_gateway/internal/breaker"
	"booking_gateway/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// downstream clients
	res := services.NewReservation(cfg.ReservationURL, cfg.CallTimeout, cfg.ClientRPS)
	pay := services.NewPayment(cfg.PaymentURL, cfg.CallTimeout, cfg.ClientRPS)
	loy := services.NewLoyalty(cfg.LoyaltyURL, cfg.CallTimeout, cfg.ClientRPS)

	// one breaker per dependency, state changes exported as metrics
	reg := breaker.NewRegistry(breaker.Config{
		FailureThreshold: cfg.BreakerThreshold,
		Window:           cfg.BreakerWindow,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenLimit:    cfg.BreakerHalfOpenLimit,
	}, func(name string, from, to breaker.State) {
		log.Warn().Str("service", name).Str("from", string(from)).Str("to", string(to)).Msg("breaker transition")
		observability.ObserveBreaker(name, string(from), string(to))
	}, app.SvcReservation, app.SvcPayment, app.SvcLoyalty)
	px := app.NewProxies(reg, cfg.CallTimeout)

	q := queue.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.QueueKey)

	booking := app.NewBookingService(res, pay, loy, q, px)
	queries := app.NewQueryService(res, pay, loy, px)

	// http
	srv := server.New()
	promReg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(promReg))
	srv.MountHandlers(&server.Handlers{B: booking, Q: queries})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("gateway listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
