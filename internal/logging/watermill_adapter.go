// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter with zerolog.
// Watermill's Info level is chatty (one line per subscriber start), so it is
// written at debug; Debug and Trace map to trace.
type WatermillAdapter struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

// NewWatermillLogger wraps logger for watermill components.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillLogger(logger zerolog.Logger) *WatermillAdapter {
	return &WatermillAdapter{logger: logger}
}

// Error logs at error level.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.logger.Error().Err(err), fields).Msg(msg)
}

// Info logs at debug level.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

// Debug logs at trace level.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

// Trace logs at trace level.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

// With returns an adapter that adds fields to every entry.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{
		logger: a.logger,
		fields: a.fields.Add(fields),
	}
}

func (a *WatermillAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	if e == nil {
		return nil
	}
	for k, v := range a.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
