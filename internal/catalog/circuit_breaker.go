// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/metrics"
)

// breakerName labels the RAWG breaker in logs and metrics.
const breakerName = "rawg-api"

// CircuitBreakerClient wraps a Fetcher with a circuit breaker so a failing
// RAWG API is not hammered by every title of every chat request.
type CircuitBreakerClient struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[Metadata]
	name string
}

var _ Fetcher = (*CircuitBreakerClient)(nil)

// BreakerSettings tunes the breaker. Zero values take the defaults used by
// NewCircuitBreakerClient.
type BreakerSettings struct {
	MaxRequests  uint32        // probes allowed in half-open state
	Interval     time.Duration // closed-state count reset window
	Timeout      time.Duration // open -> half-open delay
	MinRequests  uint32        // requests observed before tripping is considered
	FailureRatio float64
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	return s
}

// NewCircuitBreakerClient wraps next. With default settings the circuit opens
// at a 60% failure rate over at least 10 requests and probes again after 2m.
func NewCircuitBreakerClient(next Fetcher, settings BreakerSettings) *CircuitBreakerClient {
	s := settings.withDefaults()

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[Metadata](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening RAWG circuit")
				return true
			}
			return false
		},
		// A missing key or a caller hanging up says nothing about RAWG's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoAPIKey) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] RAWG state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: breakerName}
}

// Fetch implements Fetcher with circuit breaker protection.
func (c *CircuitBreakerClient) Fetch(ctx context.Context, term string) (Metadata, error) {
	md, err := c.cb.Execute(func() (Metadata, error) {
		return c.next.Fetch(ctx, term)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
	}
	return md, err
}

// State returns the breaker state as "closed", "half-open" or "open".
func (c *CircuitBreakerClient) State() string {
	return stateToString(c.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
