// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package timeline

// Decision is the result of observing a value for a topic.
type Decision struct {
	// Changed is true when the topic had no prior value or the prior value
	// differs from the observed one.
	Changed bool
}

// StateTracker holds the last-seen payload per topic.
//
// Entries are created on first observation and overwritten on change; they are
// never removed. A StateTracker is owned by a single MessageRouter and is not
// safe for concurrent use.
type StateTracker struct {
	values map[string]string
}

// NewStateTracker creates an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{values: make(map[string]string)}
}

// Observe records value for topic when it differs from the last-seen value.
// Comparison is exact on the raw payload text, so "1.0" and "1" differ.
func (s *StateTracker) Observe(topic, value string) Decision {
	if prev, ok := s.values[topic]; ok && prev == value {
		return Decision{Changed: false}
	}
	s.values[topic] = value
	return Decision{Changed: true}
}

// Last returns the last-seen value for topic.
func (s *StateTracker) Last(topic string) (string, bool) {
	v, ok := s.values[topic]
	return v, ok
}

// Len returns the number of tracked topics.
func (s *StateTracker) Len() int {
	return len(s.values)
}
