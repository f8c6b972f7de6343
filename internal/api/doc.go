// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package api serves the operational HTTP surface using the Chi router.
//
// Endpoints:
//
//	GET /metrics               Prometheus exposition (promhttp)
//	GET /api/v1/health/live    200 while the process runs
//	GET /api/v1/health/ready   200 when healthy or degraded, 503 when unhealthy
//
// Health endpoints are rate limited per client IP with httprate when
// RouterConfig.RateLimit is positive. Responses use the APIResponse envelope
// and are encoded with goccy/go-json.
//
// There is no data API: observations are queried in the time-series backend.
package api
