// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package timeline decides which bus messages become time-series points.

Three pieces cooperate:

  - StateTracker remembers the last payload per topic so unchanged values are
    not archived twice.
  - AliasRegistry assembles alias records from attribute messages that arrive
    independently of the data they annotate.
  - MessageRouter classifies each (topic, payload) pair and submits points.

# Message Classes

	topics-aliases/<entity>/$name    alias attribute (display name)
	topics-aliases/<entity>/$topic   alias attribute (annotated topic)
	.../set, ...$heartbeat           suppressed
	anything else                    data

When an alias record becomes complete (or is re-asserted) and its topic already
has a value, the router writes that value again with the alias tag so the alias
shows up on dashboards without waiting for the next change.

# Point Layout

	measurement: timelines
	tags:        topic, alias (when resolved)
	fields:      string (always), number (finite numeric payloads only)

# Concurrency

Nothing in this package locks. The pipeline delivers messages one at a time and
the store submits writes on its own goroutines.

# Example

	states := timeline.NewStateTracker()
	aliases := timeline.NewAliasRegistry()
	router := timeline.NewMessageRouter(states, aliases, asyncStore)

	router.Handle("topics-aliases/dev1/$name", "kitchen-temp")
	router.Handle("topics-aliases/dev1/$topic", "sweet-home/device/node/temp")
	router.Handle("sweet-home/device/node/temp", "21.3") // tagged alias=kitchen-temp
*/
package timeline
