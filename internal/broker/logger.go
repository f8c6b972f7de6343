// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package broker

import (
	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
)

// serverLogger adapts zerolog to the nats-server Logger interface.
// Notices are logged at debug so the broker stays quiet at info.
type serverLogger struct {
	logger zerolog.Logger
}

var _ server.Logger = (*serverLogger)(nil)

func newServerLogger(logger zerolog.Logger) *serverLogger {
	return &serverLogger{logger: logger}
}

func (l *serverLogger) Noticef(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l *serverLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// Fatalf logs at error. The server shuts itself down after a fatal condition,
// and the supervisor decides whether to restart it.
func (l *serverLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Bool("fatal", true).Msgf(format, v...)
}

func (l *serverLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l *serverLogger) Debugf(format string, v ...interface{}) {
	l.logger.Trace().Msgf(format, v...)
}

func (l *serverLogger) Tracef(format string, v ...interface{}) {
	l.logger.Trace().Msgf(format, v...)
}
