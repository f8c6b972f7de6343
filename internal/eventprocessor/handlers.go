// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package eventprocessor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
	"github.com/tomtom215/timelines/internal/timeline"
	"github.com/tomtom215/timelines/internal/transport"
)

// ObservationHandler feeds pipeline messages into the timeline MessageRouter.
//
// The router, tracker and registry are not safe for concurrent use, so the
// handler must be the only consumer of ObservationsTopic. Everything read
// from other goroutines (stats, health) goes through atomics.
type ObservationHandler struct {
	router  *timeline.MessageRouter
	states  *timeline.StateTracker
	aliases *timeline.AliasRegistry
	logger  zerolog.Logger

	messagesReceived atomic.Int64
	messagesEmitted  atomic.Int64
	missingTopic     atomic.Int64
	trackedTopics    atomic.Int64
	completeAliases  atomic.Int64
	totalAliases     atomic.Int64
	lastMessageTime  atomic.Value // stores time.Time
}

// ObservationHandlerStats holds runtime statistics for the handler.
type ObservationHandlerStats struct {
	MessagesReceived int64     `json:"messages_received"`
	MessagesEmitted  int64     `json:"messages_emitted"`
	MissingTopic     int64     `json:"missing_topic"`
	TrackedTopics    int64     `json:"tracked_topics"`
	CompleteAliases  int64     `json:"complete_aliases"`
	TotalAliases     int64     `json:"total_aliases"`
	LastMessageTime  time.Time `json:"last_message_time,omitempty"`
}

// NewObservationHandler creates a handler around an already wired router.
// states and aliases must be the same instances the router was built with.
func NewObservationHandler(router *timeline.MessageRouter, states *timeline.StateTracker, aliases *timeline.AliasRegistry) (*ObservationHandler, error) {
	if router == nil || states == nil || aliases == nil {
		return nil, ErrNilHandler
	}
	return &ObservationHandler{
		router:  router,
		states:  states,
		aliases: aliases,
		logger:  logging.WithComponent("observations"),
	}, nil
}

// Handle processes one pipeline message. It never returns an error: every
// observation is either routed or counted as dropped.
func (h *ObservationHandler) Handle(msg *message.Message) error {
	startTime := time.Now()
	h.messagesReceived.Add(1)
	h.lastMessageTime.Store(startTime)

	topic := msg.Metadata.Get(transport.MetadataTopic)
	if topic == "" {
		h.missingTopic.Add(1)
		metrics.RecordMessageDropped("missing_topic")
		h.logger.Warn().Str("message_uuid", msg.UUID).Msg("Dropping message without topic metadata")
		return nil
	}

	outcome := h.router.Handle(topic, string(msg.Payload))
	metrics.RecordMessageRouted(outcome.String(), time.Since(startTime))

	switch outcome {
	case timeline.OutcomeEmitted, timeline.OutcomeAliasEmitted:
		h.messagesEmitted.Add(1)
	case timeline.OutcomeAliasMalformed:
		h.logger.Debug().Str("topic", topic).Msg("Ignoring alias topic without entity or attribute")
	}

	h.refreshGauges(outcome)

	h.logger.Trace().
		Str("topic", topic).
		Str("outcome", outcome.String()).
		Msg("Routed observation")
	return nil
}

// refreshGauges updates the size gauges after outcomes that can change them.
func (h *ObservationHandler) refreshGauges(outcome timeline.Outcome) {
	switch outcome {
	case timeline.OutcomeEmitted:
		h.trackedTopics.Store(int64(h.states.Len()))
	case timeline.OutcomeAliasUpdated, timeline.OutcomeAliasEmitted:
		h.completeAliases.Store(int64(h.aliases.CompleteCount()))
		h.totalAliases.Store(int64(h.aliases.Len()))
	default:
		return
	}
	metrics.UpdateStateGauges(
		int(h.trackedTopics.Load()),
		int(h.completeAliases.Load()),
		int(h.totalAliases.Load()),
	)
}

// Stats returns current handler statistics.
func (h *ObservationHandler) Stats() ObservationHandlerStats {
	stats := ObservationHandlerStats{
		MessagesReceived: h.messagesReceived.Load(),
		MessagesEmitted:  h.messagesEmitted.Load(),
		MissingTopic:     h.missingTopic.Load(),
		TrackedTopics:    h.trackedTopics.Load(),
		CompleteAliases:  h.completeAliases.Load(),
		TotalAliases:     h.totalAliases.Load(),
	}
	if t, ok := h.lastMessageTime.Load().(time.Time); ok {
		stats.LastMessageTime = t
	}
	return stats
}

// HealthCheck implements HealthCheckable. The handler is always healthy; the
// details report throughput.
func (h *ObservationHandler) HealthCheck(_ context.Context) ComponentHealth {
	stats := h.Stats()
	health := ComponentHealth{
		Name:      "observations",
		Healthy:   true,
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"messages_received": stats.MessagesReceived,
			"messages_emitted":  stats.MessagesEmitted,
			"missing_topic":     stats.MissingTopic,
			"tracked_topics":    stats.TrackedTopics,
			"complete_aliases":  stats.CompleteAliases,
		},
	}
	if stats.LastMessageTime.IsZero() {
		health.Message = "No messages received yet"
	} else {
		health.Details["last_message_time"] = stats.LastMessageTime
		health.Message = "Processing observations"
	}
	return health
}
