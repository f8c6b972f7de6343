// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package services

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/timelines/internal/logging"
)

// brokerPollInterval is how often BrokerService checks the server is alive.
const brokerPollInterval = 5 * time.Second

// BrokerServer matches the broker.EmbeddedServer lifecycle.
type BrokerServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerService supervises the embedded broker.
//
// The broker is started and ready before the tree runs. On shutdown it
// waits for its dependents (the source) so clients disconnect cleanly
// before the listener goes away. A broker that dies on its own cannot be
// restarted in place and terminates the tree.
type BrokerService struct {
	server          BrokerServer
	dependents      []Stopper
	shutdownTimeout time.Duration
	pollInterval    time.Duration
	name            string
}

// NewBrokerService wraps a running embedded broker.
func NewBrokerService(server BrokerServer, shutdownTimeout time.Duration, dependents ...Stopper) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &BrokerService{
		server:          server,
		dependents:      dependents,
		shutdownTimeout: shutdownTimeout,
		pollInterval:    brokerPollInterval,
		name:            "embedded-broker",
	}
}

// AddDependent registers a service that must stop before the broker shuts down.
func (b *BrokerService) AddDependent(dep Stopper) {
	b.dependents = append(b.dependents, dep)
}

// Serve implements suture.Service.
func (b *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !b.server.IsRunning() {
				logging.Error().Msg("Embedded broker stopped unexpectedly")
				return suture.ErrTerminateSupervisorTree
			}
		case <-ctx.Done():
			return b.shutdown(ctx)
		}
	}
}

func (b *BrokerService) shutdown(ctx context.Context) error {
	if !awaitStopped(b.shutdownTimeout, b.dependents) {
		logging.Warn().Dur("timeout", b.shutdownTimeout).Msg("Stopping broker before source stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), b.shutdownTimeout)
	defer cancel()

	if err := b.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Embedded broker shutdown failed")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (b *BrokerService) String() string {
	return b.name
}
