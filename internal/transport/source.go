// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import "context"

// Source feeds bus messages into the pipeline.
type Source interface {
	Name() string
	Connect(ctx context.Context) error
	IsConnected() bool
	Close() error
}

var (
	_ Source = (*MQTTSource)(nil)
	_ Source = (*NATSSource)(nil)
)
