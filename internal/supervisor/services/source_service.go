// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/transport"
)

// SourceService owns the bus source connection inside the supervisor tree.
//
// The first connection is made by main before the service is added, so a
// broker that is unreachable at startup stops the process. Connect is
// idempotent, so Serve only reconnects after a supervisor restart. Runtime
// disconnects are handled by the client libraries' own reconnect logic.
type SourceService struct {
	source  transport.Source
	stopped *stopSignal
	name    string
}

// NewSourceService wraps a source as a supervised service.
func NewSourceService(source transport.Source) *SourceService {
	return &SourceService{
		source:  source,
		stopped: newStopSignal(),
		name:    source.Name() + "-source",
	}
}

// Serve implements suture.Service.
func (s *SourceService) Serve(ctx context.Context) error {
	if err := s.source.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			s.stopped.close()
			return ctx.Err()
		}
		return fmt.Errorf("%s connect failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.source.Close(); err != nil {
		logging.Warn().Err(err).Str("source", s.source.Name()).Msg("Source close failed")
	}
	s.stopped.close()
	return ctx.Err()
}

// Stopped implements Stopper. Closed after the source has been closed on
// shutdown.
func (s *SourceService) Stopped() <-chan struct{} {
	return s.stopped.ch
}

// Release marks a service that will never be served as stopped, so services
// waiting on it during shutdown do not block.
func (s *SourceService) Release() {
	s.stopped.close()
}

// String implements fmt.Stringer for logging.
func (s *SourceService) String() string {
	return s.name
}
