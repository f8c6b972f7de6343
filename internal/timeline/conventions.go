// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package timeline

import "strings"

// TopicSeparator delimits topic segments.
const TopicSeparator = "/"

// Class is the routing class of a topic.
type Class int

const (
	// ClassData topics are tracked and archived.
	ClassData Class = iota
	// ClassAlias topics carry alias attributes.
	ClassAlias
	// ClassSuppressed topics are command or heartbeat traffic and are dropped.
	ClassSuppressed
)

// String returns the metric label for the class.
func (c Class) String() string {
	switch c {
	case ClassAlias:
		return "alias"
	case ClassSuppressed:
		return "suppressed"
	default:
		return "data"
	}
}

// Conventions names the reserved topic shapes.
type Conventions struct {
	// AliasPrefix marks alias-definition topics: <prefix>/<entity>/<attribute>.
	AliasPrefix string
	// AttributeMarker is stripped from the front of the attribute segment.
	AttributeMarker string
	// SetSuffix marks command topics.
	SetSuffix string
	// HeartbeatSuffix marks heartbeat topics.
	HeartbeatSuffix string
}

// DefaultConventions returns the Homie-style conventions used by sweet-home
// deployments.
func DefaultConventions() Conventions {
	return Conventions{
		AliasPrefix:     "topics-aliases",
		AttributeMarker: "$",
		SetSuffix:       "/set",
		HeartbeatSuffix: "$heartbeat",
	}
}

func (c Conventions) withDefaults() Conventions {
	d := DefaultConventions()
	if c.AliasPrefix == "" {
		c.AliasPrefix = d.AliasPrefix
	}
	if c.SetSuffix == "" {
		c.SetSuffix = d.SetSuffix
	}
	if c.HeartbeatSuffix == "" {
		c.HeartbeatSuffix = d.HeartbeatSuffix
	}
	return c
}

// Classify returns the routing class of topic. Alias classification wins over
// suffix suppression.
func (c Conventions) Classify(topic string) Class {
	switch {
	case strings.HasPrefix(topic, c.AliasPrefix):
		return ClassAlias
	case strings.HasSuffix(topic, c.SetSuffix), strings.HasSuffix(topic, c.HeartbeatSuffix):
		return ClassSuppressed
	default:
		return ClassData
	}
}

// ParseAliasTopic extracts the entity id (second segment) and the attribute
// key (third segment, marker stripped). Extra segments are ignored.
func (c Conventions) ParseAliasTopic(topic string) (entityID, key string, ok bool) {
	parts := strings.SplitN(topic, TopicSeparator, 4)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[1], strings.TrimPrefix(parts[2], c.AttributeMarker), true
}
