package ai

import (
	"context"
	"errors"
	"time"

	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/sony/gobreaker/v2"
)

// newBreaker trips after FailureThreshold consecutive failures and retries
// with a single request once the cooldown elapses. Caller cancellation is
// not counted against Ollama.
func newBreaker(cfg config.CircuitBreakerConfig, logger *logging.Logger) *gobreaker.CircuitBreaker[string] {
	threshold := uint32(cfg.FailureThreshold)
	if threshold == 0 {
		threshold = 5
	}
	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "ollama",
		MaxRequests: 1,
		Interval:    time.Duration(cfg.FailureWindowSeconds) * time.Second,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ai", "Circuit breaker state changed",
				logging.F("breaker", name),
				logging.F("from", from.String()),
				logging.F("to", to.String()))
		},
	})
}
