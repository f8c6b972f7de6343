// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package logging provides the process-wide zerolog logger and adapters that
// route other logging APIs into it.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("broker", uri).Msg("Connected to broker")
//	logging.Warn().Err(err).Int("points", n).Msg("Failed to write points")
//
// # Configuration
//
// Environment variables (read by the config package):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Adapters
//
//   - NewSlogLogger: slog.Logger for sutureslog
//   - NewWatermillLogger: watermill.LoggerAdapter for the router and
//     the NATS subscriber
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
