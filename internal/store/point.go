// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"time"
)

// Point is one record destined for the time-series store.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}

// Writer persists batches of points.
//
// Implementations: *InfluxWriter (InfluxDB 1.x HTTP API), *DuckDBWriter
// (embedded DuckDB table) and *BreakerWriter (circuit breaker decorator).
type Writer interface {
	WritePoints(ctx context.Context, points []Point) error
	Close() error
}

// Pinger is implemented by writers that can check backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
