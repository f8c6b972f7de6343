// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
)

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerWriter stops calling a failing backend for a while once it has
// failed FailureThreshold times in a row. Rejected writes fail fast with
// ErrBreakerOpen and still reach the AsyncStore failure callback.
type BreakerWriter struct {
	next Writer
	cb   *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerWriter wraps next with a circuit breaker.
func NewBreakerWriter(next Writer, cfg BreakerConfig) (*BreakerWriter, error) {
	if next == nil {
		return nil, ErrNilWriter
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state changed")
		},
	}

	return &BreakerWriter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[interface{}](settings),
	}, nil
}

// WritePoints forwards to the wrapped writer through the breaker.
func (b *BreakerWriter) WritePoints(ctx context.Context, points []Point) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.WritePoints(ctx, points)
	})

	switch {
	case err == nil:
		metrics.RecordBreakerRequest(b.cb.Name(), "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(b.cb.Name(), "rejected")
		return fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	default:
		metrics.RecordBreakerRequest(b.cb.Name(), "failure")
		return err
	}
}

// State reports the breaker state: closed, half-open or open.
func (b *BreakerWriter) State() string {
	return b.cb.State().String()
}

// Ping forwards to the wrapped writer without going through the breaker.
func (b *BreakerWriter) Ping(ctx context.Context) error {
	p, ok := b.next.(Pinger)
	if !ok {
		return ErrPingUnsupported
	}
	return p.Ping(ctx)
}

// Close closes the wrapped writer.
func (b *BreakerWriter) Close() error {
	return b.next.Close()
}
