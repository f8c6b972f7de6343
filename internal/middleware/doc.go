// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package middleware provides HTTP middleware for the health and metrics server.

Key Components:

  - Request ID: UUID-based request tracking, with a request-scoped logger
  - Prometheus Metrics: HTTP request/response instrumentation

Both are plain http.HandlerFunc decorators. The api package adapts them to
chi's func(http.Handler) http.Handler form:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Metrics recorded:

  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}

The endpoint label is the chi route pattern (for example
"/api/v1/health/ready"), or "unmatched" for requests no route handled.
*/
package middleware
