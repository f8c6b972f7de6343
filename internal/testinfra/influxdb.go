// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultInfluxImage is the last InfluxDB 1.x line, which speaks the
	// /write and /query API the store targets.
	DefaultInfluxImage = "influxdb:1.8"

	// DefaultInfluxPort is the InfluxDB HTTP API port.
	DefaultInfluxPort = "8086"

	// DefaultInfluxDatabase is created at container start.
	DefaultInfluxDatabase = "influx_db"
)

// InfluxContainer represents a running InfluxDB 1.x container for testing.
type InfluxContainer struct {
	testcontainers.Container
	Host     string
	Port     int
	Database string
}

// InfluxOption configures the InfluxDB container.
type InfluxOption func(*influxConfig)

type influxConfig struct {
	image        string
	database     string
	startTimeout time.Duration
}

// WithInfluxImage sets a custom InfluxDB Docker image.
func WithInfluxImage(image string) InfluxOption {
	return func(c *influxConfig) {
		c.image = image
	}
}

// WithInfluxDatabase sets the database created at startup.
func WithInfluxDatabase(name string) InfluxOption {
	return func(c *influxConfig) {
		c.database = name
	}
}

// WithInfluxStartTimeout sets the timeout for waiting for InfluxDB to start.
func WithInfluxStartTimeout(timeout time.Duration) InfluxOption {
	return func(c *influxConfig) {
		c.startTimeout = timeout
	}
}

// NewInfluxContainer creates and starts an InfluxDB 1.x container with
// authentication disabled and one database pre-created.
//
// Example:
//
//	influx, err := testinfra.NewInfluxContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, influx)
func NewInfluxContainer(ctx context.Context, opts ...InfluxOption) (*InfluxContainer, error) {
	cfg := &influxConfig{
		image:        DefaultInfluxImage,
		database:     DefaultInfluxDatabase,
		startTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultInfluxPort + "/tcp"},
		Env: map[string]string{
			"INFLUXDB_DB":                 cfg.database,
			"INFLUXDB_HTTP_AUTH_ENABLED":  "false",
			"INFLUXDB_REPORTING_DISABLED": "true",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultInfluxPort+"/tcp"),
			wait.ForHTTP("/ping").WithPort(DefaultInfluxPort+"/tcp").WithStatusCodeMatcher(func(status int) bool {
				return status == 204
			}),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create influxdb container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, DefaultInfluxPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("parse mapped port %q: %w", mapped.Port(), err)
	}

	return &InfluxContainer{
		Container: container,
		Host:      host,
		Port:      port,
		Database:  cfg.database,
	}, nil
}

// URL returns the HTTP base URL of the InfluxDB API.
func (c *InfluxContainer) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// LogText returns the container logs for debugging.
func (c *InfluxContainer) LogText(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read logs: %w", err)
	}
	return string(logs), nil
}
