// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNilWriter is returned when a constructor is given no backend writer.
	ErrNilWriter = errors.New("store: writer is required")

	// ErrNilFailureFunc is returned when an AsyncStore is built without a
	// failure callback. Write failures must always be observable.
	ErrNilFailureFunc = errors.New("store: failure callback is required")

	// ErrClosed is reported for points submitted after Close.
	ErrClosed = errors.New("store: closed")

	// ErrBreakerOpen is returned when the circuit breaker rejects a write.
	ErrBreakerOpen = errors.New("store: circuit breaker open")

	// ErrNoDatabase is returned when the InfluxDB database name is empty.
	ErrNoDatabase = errors.New("store: database name is required")

	// ErrPingUnsupported is returned by Ping when the wrapped writer cannot ping.
	ErrPingUnsupported = errors.New("store: writer does not support ping")
)
