// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/tomtom215/timelines/internal/metrics"
)

const influxBackend = "influxdb"

// InfluxConfig describes an InfluxDB 1.x HTTP endpoint.
type InfluxConfig struct {
	Host               string
	Port               int
	Database           string
	RetentionPolicy    string
	Username           string
	Password           string
	UseHTTPS           bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Addr returns the HTTP base URL for the config.
func (c InfluxConfig) Addr() string {
	scheme := "http"
	if c.UseHTTPS {
		scheme = "https"
	}
	port := c.Port
	if port == 0 {
		port = 8086
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(c.Host, strconv.Itoa(port)))
}

// InfluxWriter writes points to InfluxDB over the 1.x HTTP write API.
type InfluxWriter struct {
	client   client.Client
	database string
	rp       string
	timeout  time.Duration
}

// NewInfluxWriter creates an HTTP client for cfg. No request is made until
// the first write or ping.
func NewInfluxWriter(cfg InfluxConfig) (*InfluxWriter, error) {
	if cfg.Database == "" {
		return nil, ErrNoDatabase
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:               cfg.Addr(),
		Username:           cfg.Username,
		Password:           cfg.Password,
		UserAgent:          "timelines",
		Timeout:            cfg.Timeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("create influxdb client: %w", err)
	}

	return &InfluxWriter{
		client:   c,
		database: cfg.Database,
		rp:       cfg.RetentionPolicy,
		timeout:  cfg.Timeout,
	}, nil
}

// WritePoints sends points as one batch with nanosecond precision.
func (w *InfluxWriter) WritePoints(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bp, err := w.batch(points)
	if err != nil {
		return err
	}

	start := time.Now()
	err = w.client.Write(bp)
	metrics.RecordStoreWrite(influxBackend, len(points), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

func (w *InfluxWriter) batch(points []Point) (client.BatchPoints, error) {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:        w.database,
		RetentionPolicy: w.rp,
		Precision:       "ns",
	})
	if err != nil {
		return nil, fmt.Errorf("influxdb batch: %w", err)
	}

	for _, p := range points {
		pt, err := client.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
		if err != nil {
			return nil, fmt.Errorf("influxdb point %q: %w", p.Measurement, err)
		}
		bp.AddPoint(pt)
	}
	return bp, nil
}

// Ping checks that the server answers /ping.
func (w *InfluxWriter) Ping(ctx context.Context) error {
	timeout := w.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		timeout = time.Second
	}

	if _, _, err := w.client.Ping(timeout); err != nil {
		return fmt.Errorf("influxdb ping: %w", err)
	}
	return nil
}

// Close releases idle HTTP connections.
func (w *InfluxWriter) Close() error {
	return w.client.Close()
}
