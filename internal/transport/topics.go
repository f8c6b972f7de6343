// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import (
	"strings"
)

// MetadataTopic is the watermill metadata key carrying the source topic.
const MetadataTopic = "topic"

// MetadataRetained is set to "true" for retained MQTT messages.
const MetadataRetained = "retained"

// dotPlaceholder stands in for '.' inside an MQTT level. nats-server uses
// "//" the same way when it maps MQTT topics to subjects.
const dotPlaceholder = "//"

// FilterToSubjects converts an MQTT subscription filter to the NATS subjects
// that receive the same messages through the nats-server MQTT gateway.
//
// '+' becomes '*' and a trailing '#' becomes '>'. Because MQTT "a/#" also
// matches "a" itself, it yields both "a" and "a.>".
func FilterToSubjects(filter string) []string {
	if filter == "#" {
		return []string{">"}
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch level {
		case "+":
			levels[i] = "*"
		case "#":
			levels[i] = ">"
		default:
			levels[i] = strings.ReplaceAll(level, ".", dotPlaceholder)
		}
	}

	subject := strings.Join(levels, ".")
	if parent, ok := strings.CutSuffix(subject, ".>"); ok {
		return []string{parent, subject}
	}
	return []string{subject}
}

// SubjectToTopic converts a NATS subject back to the MQTT topic it carries.
func SubjectToTopic(subject string) string {
	const marker = "\x00"
	s := strings.ReplaceAll(subject, dotPlaceholder, marker)
	s = strings.ReplaceAll(s, ".", "/")
	return strings.ReplaceAll(s, marker, ".")
}
