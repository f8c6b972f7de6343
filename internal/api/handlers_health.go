// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/timelines/internal/eventprocessor"
)

// HealthReporter aggregates component health. Satisfied by
// *eventprocessor.HealthChecker.
type HealthReporter interface {
	CheckAll(ctx context.Context) eventprocessor.OverallHealth
}

// Handler serves the health endpoints.
type Handler struct {
	health    HealthReporter
	version   string
	startTime time.Time
}

// NewHandler creates a handler. health may be nil, in which case readiness
// reports only process liveness.
func NewHandler(health HealthReporter, version string) *Handler {
	return &Handler{
		health:    health,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":   true,
			"version": h.version,
			"uptime":  time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles readiness probe requests.
//
// Returns 200 when every component is healthy or only degraded (a store
// outage loses writes but ingest keeps running), and 503 when any component
// is unhealthy (source disconnected, pipeline stopped).
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		respondJSON(w, http.StatusOK, &APIResponse{
			Status:   "ready",
			Data:     map[string]interface{}{"uptime": time.Since(h.startTime).Seconds()},
			Metadata: Metadata{Timestamp: time.Now()},
		})
		return
	}

	overall := h.health.CheckAll(r.Context())

	statusCode := http.StatusOK
	status := "ready"
	if !overall.Healthy {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"health":     overall.Status,
			"components": overall.Components,
			"uptime":     time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{Timestamp: overall.Timestamp},
	})
}
