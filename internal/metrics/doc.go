// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package metrics provides Prometheus metrics for the ingest pipeline and the
store writers.

All metrics are registered on the default registry through promauto and are
exposed by the HTTP service at /metrics:

	curl http://localhost:9464/metrics

# Available Metrics

Ingest Metrics:
  - timelines_messages_received_total: Messages read from the bus (counter)
    Labels: source (mqtt, nats)
  - timelines_messages_routed_total: Messages by routing outcome (counter)
    Labels: outcome
  - timelines_message_handle_duration_seconds: Routing latency (histogram)
  - timelines_messages_dropped_total: Messages dropped by the pipeline (counter)
    Labels: reason
  - timelines_tracked_topics: Topics with a remembered value (gauge)
  - timelines_alias_records: Alias records in memory (gauge)
    Labels: state (complete, partial)
  - timelines_source_connected: Bus connection state (gauge)
    Labels: source

Store Metrics:
  - timelines_store_writes_total: Write attempts (counter)
    Labels: backend, result
  - timelines_store_points_written_total: Points written (counter)
    Labels: backend
  - timelines_store_write_duration_seconds: Write latency (histogram)
    Labels: backend
  - timelines_store_writes_in_flight: Submitted writes not yet finished (gauge)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Results through the breaker (counter)
  - circuit_breaker_transitions_total: State transitions (counter)

# Usage

Callers use the Record* helpers rather than touching the collectors:

	start := time.Now()
	outcome := router.Handle(topic, payload)
	metrics.RecordMessageRouted(outcome.String(), time.Since(start))

# Thread Safety

All helpers are safe for concurrent use.
*/
package metrics
