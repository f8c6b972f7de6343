// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package services

import (
	"context"
	"errors"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/timelines/internal/logging"
)

// PipelineRunner matches the eventprocessor.Router lifecycle.
type PipelineRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// PipelineService runs the Watermill router that applies observations.
//
// A Watermill router cannot be run twice, so an unexpected stop terminates
// the whole tree instead of being restarted. On shutdown the router is
// closed only after the dependents (the source) have stopped publishing, so
// no message is left blocked in the GoChannel.
type PipelineService struct {
	router          PipelineRunner
	dependents      []Stopper
	shutdownTimeout time.Duration
	stopped         *stopSignal
	name            string
}

// NewPipelineService wraps a router. dependents are waited on, up to
// shutdownTimeout, before the router is closed.
func NewPipelineService(router PipelineRunner, shutdownTimeout time.Duration, dependents ...Stopper) *PipelineService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &PipelineService{
		router:          router,
		dependents:      dependents,
		shutdownTimeout: shutdownTimeout,
		stopped:         newStopSignal(),
		name:            "pipeline",
	}
}

// AddDependent registers a service that must stop before the router closes.
// Call before the tree is stopped.
func (p *PipelineService) AddDependent(dep Stopper) {
	p.dependents = append(p.dependents, dep)
}

// Serve implements suture.Service.
func (p *PipelineService) Serve(ctx context.Context) error {
	defer p.stopped.close()

	errCh := make(chan error, 1)
	go func() {
		// The router is stopped by Close, not by ctx.
		errCh <- p.router.Run(context.WithoutCancel(ctx))
	}()

	select {
	case err := <-errCh:
		if err == nil {
			err = errors.New("router stopped unexpectedly")
		}
		logging.Error().Err(err).Msg("Pipeline router failed")
		return suture.ErrTerminateSupervisorTree

	case <-ctx.Done():
	}

	if !awaitStopped(p.shutdownTimeout, p.dependents) {
		logging.Warn().Dur("timeout", p.shutdownTimeout).Msg("Closing pipeline before source stopped")
	}

	if err := p.router.Close(); err != nil {
		logging.Warn().Err(err).Msg("Pipeline router close failed")
	}
	<-errCh
	return ctx.Err()
}

// Stopped implements Stopper.
func (p *PipelineService) Stopped() <-chan struct{} {
	return p.stopped.ch
}

// String implements fmt.Stringer for logging.
func (p *PipelineService) String() string {
	return p.name
}
