// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package eventprocessor runs the ingest pipeline between the bus sources and
// the timeline router.
//
// # Architecture
//
//	┌─────────────┐   ┌─────────────┐
//	│ MQTT source │   │ NATS source │   (internal/transport, one active)
//	└──────┬──────┘   └──────┬──────┘
//	       └────────┬────────┘
//	                ▼
//	   ┌─────────────────────────┐
//	   │ GoChannel               │  ObservationsTopic, blocking publish
//	   │ timelines.observations  │
//	   └────────────┬────────────┘
//	                ▼
//	   ┌─────────────────────────┐
//	   │ Watermill Router        │  ackAlways -> Recoverer -> Throttle
//	   │  ObservationHandler     │
//	   └────────────┬────────────┘
//	                ▼
//	   ┌─────────────────────────┐
//	   │ timeline.MessageRouter  │  StateTracker + AliasRegistry
//	   └────────────┬────────────┘
//	                ▼
//	          store.AsyncStore
//
// # Ordering
//
// The GoChannel is created with BlockPublishUntilSubscriberAck, so a source's
// Publish returns only after ObservationHandler has acked the message. With a
// single consumer handler, messages are applied to the tracker and registry
// one at a time in the order each source delivered them.
//
// # Failure Handling
//
// Nothing is ever nacked. A handler error or panic is logged, counted in
// timelines_messages_dropped_total and acked, because redelivery would apply
// the same observation twice. Store failures never reach the handler at all:
// AsyncStore.Submit returns immediately and reports failures on its own.
//
// # Health
//
// HealthChecker aggregates Router, ObservationHandler, StoreHealth and
// SourceHealth checks for the readiness endpoint. A failed store ping is
// reported as degraded; a disconnected source or stopped router as unhealthy.
package eventprocessor
