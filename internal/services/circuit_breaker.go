package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Breaker targets
const (
	BreakerModelStore = "model_store"
	BreakerGameLogs   = "game_logs"
)

type CircuitBreakerService struct {
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewCircuitBreakerService guards the model store and game-log reads. isSuccessful
// decides which errors count as infrastructure failures; nil treats every error
// as a failure.
func NewCircuitBreakerService(
	threshold int,
	timeout time.Duration,
	isSuccessful func(err error) bool,
	metrics *Metrics,
	logger *logrus.Logger,
) *CircuitBreakerService {
	if threshold < 1 {
		threshold = 1
	}
	newSettings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.ConsecutiveFailures >= uint32(threshold) {
					return true
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: isSuccessful,
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				metrics.BreakerState(name, stateValue(to))
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"service":   name,
					"from":      from.String(),
					"to":        to.String(),
				}).Warn("Circuit breaker state changed")
			},
		}
	}

	breakers := map[string]*gobreaker.CircuitBreaker{
		BreakerModelStore: gobreaker.NewCircuitBreaker(newSettings(BreakerModelStore)),
		BreakerGameLogs:   gobreaker.NewCircuitBreaker(newSettings(BreakerGameLogs)),
	}
	for name := range breakers {
		metrics.BreakerState(name, 0)
	}

	return &CircuitBreakerService{
		breakers: breakers,
		logger:   logger,
	}
}

// Execute wraps a function call with circuit breaker protection
func (cb *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	breaker, exists := cb.breakers[service]
	if !exists {
		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"service":   service,
		}).Warn("No circuit breaker found for service, executing without protection")
		return fn()
	}

	return breaker.Execute(fn)
}

// GetState returns the current state of a circuit breaker
func (cb *CircuitBreakerService) GetState(service string) gobreaker.State {
	if breaker, exists := cb.breakers[service]; exists {
		return breaker.State()
	}
	return gobreaker.StateClosed
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
