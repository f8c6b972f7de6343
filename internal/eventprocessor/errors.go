// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package eventprocessor

import "errors"

// ErrNilHandler is returned when a handler is built without its dependencies.
var ErrNilHandler = errors.New("handler dependencies cannot be nil")

// ErrNilComponent is returned when a nil dependency is passed to a health checker.
var ErrNilComponent = errors.New("health component cannot be nil")
