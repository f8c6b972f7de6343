// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest Metrics
var (
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_messages_received_total",
			Help: "Total number of bus messages received",
		},
		[]string{"source"}, // "mqtt", "nats"
	)

	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_messages_routed_total",
			Help: "Total number of messages by routing outcome",
		},
		[]string{"outcome"}, // "emitted", "unchanged", "suppressed", "alias_updated", "alias_emitted", "alias_malformed"
	)

	MessageHandleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timelines_message_handle_duration_seconds",
			Help:    "Time spent routing a single message",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_messages_dropped_total",
			Help: "Total number of messages dropped before routing",
		},
		[]string{"reason"}, // "handler_error", "panic"
	)

	TrackedTopics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timelines_tracked_topics",
			Help: "Number of topics with a remembered last value",
		},
	)

	AliasRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timelines_alias_records",
			Help: "Number of alias records held in memory",
		},
		[]string{"state"}, // "complete", "partial"
	)

	SourceConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timelines_source_connected",
			Help: "Whether the bus source is connected (1) or not (0)",
		},
		[]string{"source"},
	)

	SourceConnectionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_source_connection_events_total",
			Help: "Connection lifecycle events from the bus source",
		},
		[]string{"source", "event"}, // event: "connected", "lost", "reconnecting"
	)
)

// Store Metrics
var (
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_store_writes_total",
			Help: "Total number of store write attempts by result",
		},
		[]string{"backend", "result"}, // result: "success", "failure"
	)

	StorePointsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timelines_store_points_written_total",
			Help: "Total number of points successfully written",
		},
		[]string{"backend"},
	)

	StoreWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timelines_store_write_duration_seconds",
			Help:    "Duration of store writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	StoreWritesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timelines_store_writes_in_flight",
			Help: "Number of submitted writes that have not completed",
		},
	)
)

// Circuit Breaker Metrics
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// HTTP Metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// Application Metrics
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordMessageReceived counts one inbound message from source.
func RecordMessageReceived(source string) {
	MessagesReceived.WithLabelValues(source).Inc()
}

// RecordMessageRouted counts a routing outcome and how long it took.
func RecordMessageRouted(outcome string, duration time.Duration) {
	MessagesRouted.WithLabelValues(outcome).Inc()
	MessageHandleDuration.Observe(duration.Seconds())
}

// RecordMessageDropped counts a message the pipeline gave up on.
func RecordMessageDropped(reason string) {
	MessagesDropped.WithLabelValues(reason).Inc()
}

// UpdateStateGauges publishes the in-memory sizes of the tracker and registry.
func UpdateStateGauges(topics, completeAliases, totalAliases int) {
	TrackedTopics.Set(float64(topics))
	AliasRecords.WithLabelValues("complete").Set(float64(completeAliases))
	AliasRecords.WithLabelValues("partial").Set(float64(totalAliases - completeAliases))
}

// RecordSourceEvent records a connection lifecycle event and updates the
// connected gauge.
func RecordSourceEvent(source, event string) {
	SourceConnectionEvents.WithLabelValues(source, event).Inc()
	switch event {
	case "connected":
		SourceConnected.WithLabelValues(source).Set(1)
	case "lost", "disconnected":
		SourceConnected.WithLabelValues(source).Set(0)
	}
}

// RecordStoreWrite records a completed write attempt.
func RecordStoreWrite(backend string, points int, duration time.Duration, err error) {
	StoreWriteDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		StoreWrites.WithLabelValues(backend, "failure").Inc()
		return
	}
	StoreWrites.WithLabelValues(backend, "success").Inc()
	StorePointsWritten.WithLabelValues(backend).Add(float64(points))
}

// TrackInFlightWrite increments or decrements the in-flight write gauge.
func TrackInFlightWrite(inc bool) {
	if inc {
		StoreWritesInFlight.Inc()
	} else {
		StoreWritesInFlight.Dec()
	}
}

// RecordBreakerTransition records a state change and sets the state gauge.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

// RecordBreakerRequest records the result of a call through a breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
