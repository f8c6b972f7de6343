// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/timelines/internal/logging"
)

type contextKey string

// RequestIDKey is the context key holding the request id.
const RequestIDKey contextKey = "request_id"

// RequestIDHeader is read from the request and echoed on the response.
const RequestIDHeader = "X-Request-ID"

// RequestID middleware generates a unique ID for each request
// and adds it to both the response header and request context.
// A request-scoped zerolog logger carrying the id is attached as well,
// so handlers can log with zerolog.Ctx(r.Context()).
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check if request already has an ID (from upstream proxy)
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		logger := logging.WithComponent("http").With().Str("request_id", requestID).Logger()
		ctx = logger.WithContext(ctx)

		next(w, r.WithContext(ctx))
	}
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
