// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
)

// DefaultWriteTimeout bounds a single submitted write.
const DefaultWriteTimeout = 30 * time.Second

// FailureFunc receives every failed write together with the points it carried.
type FailureFunc func(err error, points []Point)

// AsyncOption configures an AsyncStore.
type AsyncOption func(*AsyncStore)

// WithWriteTimeout sets the per-write deadline. Zero or negative keeps the default.
func WithWriteTimeout(d time.Duration) AsyncOption {
	return func(s *AsyncStore) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// AsyncStore hands writes to a Writer without blocking the caller.
//
// Submit returns immediately; the write runs on its own goroutine and any
// error goes to the failure callback. Writes are not ordered relative to each
// other and are not retried. Close stops intake and waits for in-flight
// writes.
type AsyncStore struct {
	writer       Writer
	onFailure    FailureFunc
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewAsyncStore wraps w. onFailure is required.
func NewAsyncStore(w Writer, onFailure FailureFunc, opts ...AsyncOption) (*AsyncStore, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	if onFailure == nil {
		return nil, ErrNilFailureFunc
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &AsyncStore{
		writer:       w,
		onFailure:    onFailure,
		writeTimeout: DefaultWriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit starts a write of points and returns without waiting for it.
// Empty batches are ignored. After Close, points are reported to the failure
// callback with ErrClosed.
func (s *AsyncStore) Submit(points []Point) {
	if len(points) == 0 {
		return
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		s.onFailure(ErrClosed, points)
		return
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	s.inFlight.Add(1)
	metrics.TrackInFlightWrite(true)

	go s.write(points)
}

func (s *AsyncStore) write(points []Point) {
	defer func() {
		s.inFlight.Add(-1)
		metrics.TrackInFlightWrite(false)
		s.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.writeTimeout)
	defer cancel()

	if err := s.writer.WritePoints(ctx, points); err != nil {
		s.onFailure(err, points)
	}
}

// InFlight returns the number of submitted writes that have not finished.
func (s *AsyncStore) InFlight() int64 {
	return s.inFlight.Load()
}

// Ping checks the backend when the writer supports it.
func (s *AsyncStore) Ping(ctx context.Context) error {
	p, ok := s.writer.(Pinger)
	if !ok {
		return ErrPingUnsupported
	}
	return p.Ping(ctx)
}

// Close stops accepting points and waits for in-flight writes until ctx is
// done. Writes still running at that point are cancelled. The underlying
// writer is closed in both cases. Close is idempotent.
func (s *AsyncStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var drainErr error
	select {
	case <-done:
	case <-ctx.Done():
		drainErr = ctx.Err()
		logging.Warn().
			Int64("in_flight", s.inFlight.Load()).
			Msg("Store drain deadline reached, cancelling pending writes")
		s.cancel()
		<-done
	}
	s.cancel()

	if err := s.writer.Close(); err != nil {
		return err
	}
	return drainErr
}

// NewFailureLogger returns a FailureFunc that logs write failures as warnings
// together with the points that were lost. Bursts are thinned to the first
// few failures and then one per interval so a dead backend does not flood
// the log.
func NewFailureLogger(backend string) FailureFunc {
	sometimes := &rate.Sometimes{First: 10, Interval: 10 * time.Second}
	var suppressed atomic.Int64

	return func(err error, points []Point) {
		logged := false
		sometimes.Do(func() {
			logged = true
			ev := logging.Warn().
				Err(err).
				Str("backend", backend).
				Int("points", len(points)).
				Int64("suppressed", suppressed.Swap(0))
			if len(points) > 0 {
				ev = ev.Interface("tags", points[0].Tags).Interface("fields", points[0].Fields)
			}
			ev.Msg("Failed to write points")
		})
		if !logged {
			suppressed.Add(1)
		}
	}
}
