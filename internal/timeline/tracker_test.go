// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package timeline

import "testing"

func TestStateTracker_Observe(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		want   bool
	}{
		{"same value", "5", "5", false},
		{"different value", "5", "6", true},
		{"numeric formatting differs", "1.0", "1", true},
		{"empty repeated", "", "", false},
		{"whitespace differs", "on", "on ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStateTracker()

			if d := s.Observe("sweet-home/x", tt.first); !d.Changed {
				t.Fatal("first observation must be a change")
			}
			if d := s.Observe("sweet-home/x", tt.second); d.Changed != tt.want {
				t.Errorf("Observe(%q after %q).Changed = %v, want %v", tt.second, tt.first, d.Changed, tt.want)
			}

			got, ok := s.Last("sweet-home/x")
			if !ok || got != tt.second {
				t.Errorf("Last() = %q, %v; want %q, true", got, ok, tt.second)
			}
		})
	}
}

func TestStateTracker_TopicsAreIndependent(t *testing.T) {
	s := NewStateTracker()

	s.Observe("a", "1")
	if d := s.Observe("b", "1"); !d.Changed {
		t.Error("first value on another topic must be a change")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Last("c"); ok {
		t.Error("Last() on unseen topic should report absent")
	}
}

func TestStateTracker_UnchangedDoesNotMutate(t *testing.T) {
	s := NewStateTracker()
	s.Observe("t", "x")
	s.Observe("t", "x")
	s.Observe("t", "y")

	if d := s.Observe("t", "x"); !d.Changed {
		t.Error("returning to an earlier value is a change")
	}
}
