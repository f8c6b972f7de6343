// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/timelines/internal/eventprocessor"
)

type stubReporter struct {
	overall eventprocessor.OverallHealth
}

func (s stubReporter) CheckAll(context.Context) eventprocessor.OverallHealth {
	return s.overall
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func serve(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthLive(t *testing.T) {
	h := NewHandler(nil, "1.2.3")
	rec := serve(t, NewRouter(h, RouterConfig{}).SetupChi(), http.MethodGet, "/api/v1/health/live")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", resp.Data)
	}
	if data["alive"] != true || data["version"] != "1.2.3" {
		t.Errorf("data = %v", data)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		reporter   HealthReporter
		wantCode   int
		wantStatus string
	}{
		{
			name:       "no checker",
			reporter:   nil,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name: "healthy",
			reporter: stubReporter{overall: eventprocessor.OverallHealth{
				Healthy: true, Status: eventprocessor.HealthStatusHealthy, Timestamp: time.Now(),
			}},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name: "degraded store stays ready",
			reporter: stubReporter{overall: eventprocessor.OverallHealth{
				Healthy: true, Status: eventprocessor.HealthStatusDegraded, Timestamp: time.Now(),
				Components: map[string]eventprocessor.ComponentHealth{
					"store": {Name: "store", Healthy: true, Degraded: true},
				},
			}},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name: "source down",
			reporter: stubReporter{overall: eventprocessor.OverallHealth{
				Healthy: false, Status: eventprocessor.HealthStatusUnhealthy, Timestamp: time.Now(),
				Components: map[string]eventprocessor.ComponentHealth{
					"source": {Name: "source", Error: "Not connected to mqtt"},
				},
			}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.reporter, "test")
			rec := serve(t, NewRouter(h, RouterConfig{}).SetupChi(), http.MethodGet, "/api/v1/health/ready")

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if resp := decodeResponse(t, rec); resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestHealthReady_ReportsComponents(t *testing.T) {
	checker := eventprocessor.NewHealthChecker(eventprocessor.DefaultHealthConfig())
	source, err := eventprocessor.NewSourceHealth(disconnectedSource{})
	if err != nil {
		t.Fatalf("NewSourceHealth() error = %v", err)
	}
	checker.RegisterComponent("source", source)

	rec := serve(t, NewRouter(NewHandler(checker, "test"), RouterConfig{}).SetupChi(), http.MethodGet, "/api/v1/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not connected to nats") {
		t.Errorf("body missing source error: %s", rec.Body.String())
	}
}

type disconnectedSource struct{}

func (disconnectedSource) Name() string                  { return "nats" }
func (disconnectedSource) Connect(context.Context) error { return nil }
func (disconnectedSource) IsConnected() bool             { return false }
func (disconnectedSource) Close() error                  { return nil }
