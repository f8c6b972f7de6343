// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/timelines/internal/middleware"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
}

// Router builds the chi route tree.
type Router struct {
	handler *Handler
	config  RouterConfig
}

// NewRouter creates a new router.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	return &Router{handler: handler, config: cfg}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// rateLimit returns an IP-keyed httprate limiter, or a pass-through when
// limiting is disabled.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.config.RateLimit <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		router.config.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
		}),
	)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}
