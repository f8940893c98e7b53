package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	ReservationURL string
	PaymentURL     string
	LoyaltyURL     string
	CallTimeout    time.Duration
	ClientRPS      int

	RedisAddr string
	RedisDB   int
	RedisPass string
	QueueKey  string
	// RetryDelay is how long a failed deferred compensation waits before it
	// becomes eligible for redelivery.
	RetryDelay time.Duration

	BreakerThreshold     int
	BreakerWindow        time.Duration
	BreakerOpenTimeout   time.Duration
	BreakerHalfOpenLimit int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		ReservationURL: env("RESERVATION_URL", "http://reservation-microservice:8070"),
		PaymentURL:     env("PAYMENT_URL", "http://payment-microservice:8060"),
		LoyaltyURL:     env("LOYALTY_URL", "http://loyalty-microservice:8050"),
		CallTimeout:    time.Duration(atoi("CALL_TIMEOUT_MS", 5000)) * time.Millisecond,
		ClientRPS:      atoi("CLIENT_RPS", 50),

		RedisAddr:  env("REDIS_ADDR", "localhost:6379"),
		RedisPass:  env("REDIS_PASSWORD", ""),
		RedisDB:    atoi("REDIS_DB", 0),
		QueueKey:   env("COMPENSATION_QUEUE", "compensations"),
		RetryDelay: time.Duration(atoi("RETRY_DELAY_SECONDS", 10)) * time.Second,

		BreakerThreshold:     atoi("BREAKER_THRESHOLD", 10),
		BreakerWindow:        time.Duration(atoi("BREAKER_WINDOW_SECONDS", 60)) * time.Second,
		BreakerOpenTimeout:   time.Duration(atoi("BREAKER_OPEN_TIMEOUT_MS", 5000)) * time.Millisecond,
		BreakerHalfOpenLimit: atoi("BREAKER_HALF_OPEN_LIMIT", 3),
	}
	if c.BreakerThreshold <= 0 {
		log.Warn().Int("threshold", c.BreakerThreshold).Msg("BREAKER_THRESHOLD invalid, using default")
		c.BreakerThreshold = 10
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
