// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import (
	"reflect"
	"testing"
)

func TestFilterToSubjects(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{"sweet-home/#", []string{"sweet-home", "sweet-home.>"}},
		{"topics-aliases/#", []string{"topics-aliases", "topics-aliases.>"}},
		{"scenarios/+/+", []string{"scenarios.*.*"}},
		{"a/b/c", []string{"a.b.c"}},
		{"a/+/c/#", []string{"a.*.c", "a.*.c.>"}},
		{"#", []string{">"}},
		{"+", []string{"*"}},
		{"v1.2/temp", []string{"v1//2.temp"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			if got := FilterToSubjects(tt.filter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterToSubjects(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestSubjectToTopic(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"sweet-home.kitchen.temperature", "sweet-home/kitchen/temperature"},
		{"topics-aliases.kitchen.$name", "topics-aliases/kitchen/$name"},
		{"single", "single"},
		{"v1//2.temp", "v1.2/temp"},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			if got := SubjectToTopic(tt.subject); got != tt.want {
				t.Errorf("SubjectToTopic(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}
