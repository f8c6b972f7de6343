// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupChi_Metrics(t *testing.T) {
	handler := NewRouter(NewHandler(nil, "test"), RouterConfig{}).SetupChi()

	// Generate one request so api_requests_total has a sample.
	serve(t, handler, http.MethodGet, "/api/v1/health/live")

	rec := serve(t, handler, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"api_requests_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
	if !strings.Contains(body, `endpoint="/api/v1/health/live"`) {
		t.Error("api_requests_total should be labelled with the route pattern")
	}
}

func TestSetupChi_RequestID(t *testing.T) {
	handler := NewRouter(NewHandler(nil, "test"), RouterConfig{}).SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestSetupChi_NotFoundAndMethod(t *testing.T) {
	handler := NewRouter(NewHandler(nil, "test"), RouterConfig{}).SetupChi()

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantErr  string
	}{
		{http.MethodGet, "/api/v1/observations", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodPost, "/api/v1/health/live", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(t, handler, tt.method, tt.path)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decodeResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestSetupChi_RateLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		requests int
		wantLast int
	}{
		{"disabled", 0, 20, http.StatusOK},
		{"enforced", 3, 4, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRouter(NewHandler(nil, "test"), RouterConfig{RateLimit: tt.limit}).SetupChi()

			var rec *httptest.ResponseRecorder
			for i := 0; i < tt.requests; i++ {
				rec = serve(t, handler, http.MethodGet, "/api/v1/health/live")
			}
			if rec.Code != tt.wantLast {
				t.Errorf("last status = %d, want %d", rec.Code, tt.wantLast)
			}
		})
	}

	// /metrics is never limited.
	handler := NewRouter(NewHandler(nil, "test"), RouterConfig{RateLimit: 1}).SetupChi()
	for i := 0; i < 3; i++ {
		if rec := serve(t, handler, http.MethodGet, "/metrics"); rec.Code != http.StatusOK {
			t.Fatalf("/metrics request %d status = %d", i, rec.Code)
		}
	}
}
