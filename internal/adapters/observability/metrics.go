package observability

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "external_requests_total", Help: "Outbound requests to downstream services."},
		[]string{"service", "outcome"}, // outcome: ok|error|rejected
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	// BreakerState: 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "gateway", Name: "breaker_state", Help: "Circuit breaker state per dependency (0 closed, 1 half-open, 2 open)."},
		[]string{"service"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "breaker_transitions_total", Help: "Circuit breaker state transitions."},
		[]string{"service", "from", "to"},
	)
	QueueEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "compensation_queue_events_total", Help: "Deferred compensation queue events."},
		[]string{"queue", "event"}, // event: enqueued|acked|requeued|recovered
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		BreakerState, BreakerTransitions, QueueEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, outcome string, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, outcome).Inc()
	ExternalLatency.WithLabelValues(service).Observe(dur.Seconds())
}

// ObserveBreaker records a state transition; states are the breaker
// package's CLOSED/OPEN/HALF_OPEN strings.
func ObserveBreaker(service, from, to string) {
	BreakerTransitions.WithLabelValues(service, from, to).Inc()
	BreakerState.WithLabelValues(service).Set(stateValue(to))
}

func stateValue(state string) float64 {
	switch state {
	case "HALF_OPEN":
		return 1
	case "OPEN":
		return 2
	default:
		return 0
	}
}

func ObserveQueue(queue, event string) {
	QueueEvents.WithLabelValues(queue, event).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
