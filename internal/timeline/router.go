// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package timeline

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tomtom215/timelines/internal/store"
)

// Point layout written for every accepted observation.
const (
	DefaultMeasurement = "timelines"

	TagTopic    = "topic"
	TagAlias    = "alias"
	FieldString = "string"
	FieldNumber = "number"
)

// Outcome describes what the router did with one message.
type Outcome int

const (
	// OutcomeAliasUpdated means an alias attribute was stored without a write.
	OutcomeAliasUpdated Outcome = iota
	// OutcomeAliasEmitted means an alias completed and its last value was written.
	OutcomeAliasEmitted
	// OutcomeAliasMalformed means an alias-definition topic lacked segments.
	OutcomeAliasMalformed
	// OutcomeSuppressed means a set or heartbeat topic was dropped.
	OutcomeSuppressed
	// OutcomeUnchanged means the value equals the last-seen value.
	OutcomeUnchanged
	// OutcomeEmitted means a changed data value was written.
	OutcomeEmitted
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAliasUpdated:
		return "alias_updated"
	case OutcomeAliasEmitted:
		return "alias_emitted"
	case OutcomeAliasMalformed:
		return "alias_malformed"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Submitter accepts points without waiting for the write to finish.
// Satisfied by *store.AsyncStore.
type Submitter interface {
	Submit(points []store.Point)
}

// MessageRouter decides, for each inbound message, whether it is an alias
// definition, an ignorable control topic or a data observation, and submits a
// point when something worth archiving happened.
//
// Handle must be called from one goroutine at a time; the tracker and registry
// it drives carry no locks.
type MessageRouter struct {
	states      *StateTracker
	aliases     *AliasRegistry
	sink        Submitter
	conventions Conventions
	measurement string
	now         func() time.Time
}

// Option configures a MessageRouter.
type Option func(*MessageRouter)

// WithConventions overrides the topic conventions.
func WithConventions(c Conventions) Option {
	return func(r *MessageRouter) { r.conventions = c.withDefaults() }
}

// WithMeasurement overrides the measurement name.
func WithMeasurement(name string) Option {
	return func(r *MessageRouter) {
		if name != "" {
			r.measurement = name
		}
	}
}

// WithClock overrides the point timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *MessageRouter) {
		if now != nil {
			r.now = now
		}
	}
}

// NewMessageRouter wires the router to its state, alias registry and sink.
func NewMessageRouter(states *StateTracker, aliases *AliasRegistry, sink Submitter, opts ...Option) *MessageRouter {
	r := &MessageRouter{
		states:      states,
		aliases:     aliases,
		sink:        sink,
		conventions: DefaultConventions(),
		measurement: DefaultMeasurement,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one message and reports what was done with it.
func (r *MessageRouter) Handle(topic, value string) Outcome {
	switch r.conventions.Classify(topic) {
	case ClassAlias:
		return r.handleAlias(topic, value)
	case ClassSuppressed:
		return OutcomeSuppressed
	}

	if !r.states.Observe(topic, value).Changed {
		return OutcomeUnchanged
	}

	alias := ""
	if rec, ok := r.aliases.ResolveAliasForTopic(topic); ok {
		alias = rec.Name
	}
	r.emit(topic, alias, value)
	return OutcomeEmitted
}

func (r *MessageRouter) handleAlias(topic, value string) Outcome {
	entityID, key, ok := r.conventions.ParseAliasTopic(topic)
	if !ok {
		return OutcomeAliasMalformed
	}

	rec := r.aliases.UpsertAttribute(entityID, key, value)
	if !rec.Complete() {
		return OutcomeAliasUpdated
	}

	last, ok := r.states.Last(rec.Topic)
	if !ok || last == "" {
		return OutcomeAliasUpdated
	}

	r.emit(rec.Topic, rec.Name, last)
	return OutcomeAliasEmitted
}

func (r *MessageRouter) emit(topic, alias, value string) {
	tags := map[string]string{TagTopic: topic}
	if alias != "" {
		tags[TagAlias] = alias
	}

	r.sink.Submit([]store.Point{{
		Measurement: r.measurement,
		Tags:        tags,
		Fields:      Fields(value),
		Time:        r.now(),
	}})
}

// Fields builds the field set for a payload: the raw text always, and the
// numeric value when the payload starts with a finite number.
func Fields(value string) map[string]interface{} {
	fields := map[string]interface{}{FieldString: value}
	if n, ok := ParseNumber(value); ok {
		fields[FieldNumber] = n
	}
	return fields
}

// numberPrefix matches a leading decimal literal. Hex, underscores and
// "Infinity" are not part of it.
var numberPrefix = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// ParseNumber reads the longest decimal number at the start of value, after
// leading whitespace, so "23.5°C" is 23.5 and "0x10" is 0. NaN and
// infinities, including overflowing exponents, are rejected.
func ParseNumber(value string) (float64, bool) {
	literal := numberPrefix.FindString(strings.TrimLeftFunc(value, unicode.IsSpace))
	if literal == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
