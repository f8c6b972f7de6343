// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import "errors"

var (
	// ErrNilPublisher is returned when a source is built without a pipeline publisher.
	ErrNilPublisher = errors.New("transport: publisher cannot be nil")

	// ErrNoTopics is returned when a source has nothing to subscribe to.
	ErrNoTopics = errors.New("transport: at least one topic filter is required")

	// ErrConnect wraps the cause of a failed initial connection.
	ErrConnect = errors.New("transport: connect failed")

	// ErrNotStarted is returned by Run when Connect has not succeeded.
	ErrNotStarted = errors.New("transport: source not connected")
)
