// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package eventprocessor

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/timelines/internal/transport"
)

// HealthStatusType represents the overall health status.
type HealthStatusType string

const (
	// HealthStatusHealthy indicates all components are functioning normally.
	HealthStatusHealthy HealthStatusType = "healthy"
	// HealthStatusDegraded indicates some components are experiencing issues but still operational.
	HealthStatusDegraded HealthStatusType = "degraded"
	// HealthStatusUnhealthy indicates critical components are failing.
	HealthStatusUnhealthy HealthStatusType = "unhealthy"
)

// HealthConfig holds configuration for health checking.
type HealthConfig struct {
	// Timeout is the maximum time to wait for a single component check.
	Timeout time.Duration
}

// DefaultHealthConfig returns sensible defaults for health checking.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout: 5 * time.Second,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	// Healthy indicates whether the component is functioning.
	Healthy bool `json:"healthy"`
	// Degraded indicates the component is operational but experiencing issues.
	Degraded bool `json:"degraded,omitempty"`
	// Name is the component identifier.
	Name string `json:"name"`
	// Message provides additional context about the health status.
	Message string `json:"message,omitempty"`
	// Error contains error details if unhealthy.
	Error string `json:"error,omitempty"`
	// LastCheck is when the health check was performed.
	LastCheck time.Time `json:"last_check"`
	// Details contains component-specific health information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthCheckable is implemented by components that support health checking.
type HealthCheckable interface {
	// HealthCheck performs a health check and returns the result.
	HealthCheck(ctx context.Context) ComponentHealth
}

// OverallHealth represents the aggregated health status of all components.
type OverallHealth struct {
	// Healthy indicates whether all components are healthy.
	Healthy bool `json:"healthy"`
	// Status is the overall health status.
	Status HealthStatusType `json:"status"`
	// Timestamp is when this health check was performed.
	Timestamp time.Time `json:"timestamp"`
	// Components contains individual component health.
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker manages health checks for multiple components.
type HealthChecker struct {
	config     HealthConfig
	mu         sync.RWMutex
	components map[string]HealthCheckable
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthConfig().Timeout
	}
	return &HealthChecker{
		config:     cfg,
		components: make(map[string]HealthCheckable),
	}
}

// RegisterComponent registers a component for health checking.
func (h *HealthChecker) RegisterComponent(name string, component HealthCheckable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = component
}

// UnregisterComponent removes a component from health checking.
func (h *HealthChecker) UnregisterComponent(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.components, name)
}

// CheckAll performs health checks on all registered components in parallel.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	h.mu.RLock()
	componentsCopy := make(map[string]HealthCheckable, len(h.components))
	for name, comp := range h.components {
		componentsCopy[name] = comp
	}
	h.mu.RUnlock()

	overall := OverallHealth{
		Healthy:    true,
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(componentsCopy)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, component := range componentsCopy {
		wg.Add(1)
		go func(name string, comp HealthCheckable) {
			defer wg.Done()

			result := h.check(ctx, name, comp)

			mu.Lock()
			overall.Components[name] = result
			if !result.Healthy {
				overall.Healthy = false
				overall.Status = HealthStatusUnhealthy
			} else if result.Degraded && overall.Status == HealthStatusHealthy {
				overall.Status = HealthStatusDegraded
			}
			mu.Unlock()
		}(name, component)
	}

	wg.Wait()
	return overall
}

// CheckComponent performs a health check on a specific component.
func (h *HealthChecker) CheckComponent(ctx context.Context, name string) ComponentHealth {
	h.mu.RLock()
	component, exists := h.components[name]
	h.mu.RUnlock()

	if !exists {
		return ComponentHealth{
			Name:      name,
			Error:     "component not found",
			LastCheck: time.Now(),
		}
	}
	return h.check(ctx, name, component)
}

// check runs one component check bounded by the configured timeout.
func (h *HealthChecker) check(ctx context.Context, name string, comp HealthCheckable) ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resultCh := make(chan ComponentHealth, 1)
	go func() {
		result := comp.HealthCheck(checkCtx)
		result.Name = name
		result.LastCheck = time.Now()
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-checkCtx.Done():
		return ComponentHealth{
			Name:      name,
			Error:     "health check timeout",
			LastCheck: time.Now(),
		}
	}
}

// StoreBackend is the part of the observation store the health check needs.
// Satisfied by *store.AsyncStore.
type StoreBackend interface {
	Ping(ctx context.Context) error
	InFlight() int64
}

// StoreHealth reports store reachability. An unreachable store marks the
// service degraded, not unhealthy: writes are fire-and-forget and ingest
// keeps running while the backend is away.
type StoreHealth struct {
	backend StoreBackend
	name    string
}

// NewStoreHealth wraps a store for health checking. name is the backend
// label ("influxdb" or "duckdb").
func NewStoreHealth(backend StoreBackend, name string) (*StoreHealth, error) {
	if backend == nil {
		return nil, ErrNilComponent
	}
	return &StoreHealth{backend: backend, name: name}, nil
}

// HealthCheck implements HealthCheckable.
func (s *StoreHealth) HealthCheck(ctx context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "store",
		Healthy:   true,
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"backend":   s.name,
			"in_flight": s.backend.InFlight(),
		},
	}

	if err := s.backend.Ping(ctx); err != nil {
		health.Degraded = true
		health.Message = "Store unreachable, observations are being dropped"
		health.Details["ping_error"] = err.Error()
		return health
	}
	health.Message = "Store reachable"
	return health
}

// SourceHealth reports whether the bus source holds a live connection.
type SourceHealth struct {
	source transport.Source
}

// NewSourceHealth wraps a source for health checking.
func NewSourceHealth(source transport.Source) (*SourceHealth, error) {
	if source == nil {
		return nil, ErrNilComponent
	}
	return &SourceHealth{source: source}, nil
}

// HealthCheck implements HealthCheckable.
func (s *SourceHealth) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "source",
		LastCheck: time.Now(),
		Details:   map[string]interface{}{"source": s.source.Name()},
	}
	if s.source.IsConnected() {
		health.Healthy = true
		health.Message = "Connected to " + s.source.Name()
	} else {
		health.Error = "Not connected to " + s.source.Name()
	}
	return health
}
