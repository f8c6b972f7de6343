// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package main

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/timelines/internal/config"
	"github.com/tomtom215/timelines/internal/store"
	"github.com/tomtom215/timelines/internal/transport"
)

func testConfig() *config.Config {
	return &config.Config{
		Source: config.SourceMQTT,
		MQTT: config.MQTTConfig{
			BrokerURI:            "mqtt://127.0.0.1:1883",
			Topics:               []string{"sweet-home/#"},
			ConnectTimeout:       time.Second,
			KeepAlive:            30 * time.Second,
			MaxReconnectInterval: time.Minute,
		},
		NATS: config.NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			MaxReconnects: -1,
			ReconnectWait: time.Second,
		},
		Store: config.StoreConfig{
			Backend:      config.BackendDuckDB,
			Measurement:  "timelines",
			WriteTimeout: time.Second,
			DrainTimeout: time.Second,
			Breaker: config.BreakerConfig{
				Enabled:          true,
				FailureThreshold: 3,
				Timeout:          time.Second,
			},
		},
		Influx: config.InfluxConfig{
			Host:     "localhost",
			Port:     8086,
			Database: "influx_db",
			Timeout:  time.Second,
		},
		DuckDB: config.DuckDBConfig{Path: ":memory:"},
		Topics: config.TopicsConfig{
			AliasPrefix:     "aliases",
			AttributeMarker: "@",
			SetSuffix:       "/cmd",
			HeartbeatSuffix: "/alive",
		},
		Pipeline: config.PipelineConfig{CloseTimeout: time.Second},
	}
}

func TestInitBroker_Disabled(t *testing.T) {
	srv, err := initBroker(testConfig())
	if err != nil {
		t.Fatalf("initBroker() error = %v", err)
	}
	if srv != nil {
		t.Error("initBroker() should return nil when the broker is disabled")
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		breaker     bool
		wantBreaker bool
		wantErr     bool
	}{
		{"duckdb with breaker", config.BackendDuckDB, true, true, false},
		{"duckdb without breaker", config.BackendDuckDB, false, false, false},
		{"influx with breaker", config.BackendInfluxDB, true, true, false},
		{"unknown backend", "sqlite", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Store.Backend = tt.backend
			cfg.Store.Breaker.Enabled = tt.breaker

			w, err := newWriter(context.Background(), cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("newWriter() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newWriter() error = %v", err)
			}
			defer w.Close()

			if _, ok := w.(*store.BreakerWriter); ok != tt.wantBreaker {
				t.Errorf("writer = %T, breaker wrapped = %v, want %v", w, ok, tt.wantBreaker)
			}
		})
	}
}

func TestInitStore(t *testing.T) {
	sink, err := initStore(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("initStore() error = %v", err)
	}
	if err := sink.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewSource(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	defer pubSub.Close()

	tests := []struct {
		source   string
		wantName string
		wantErr  bool
	}{
		{config.SourceMQTT, "mqtt", false},
		{config.SourceNATS, "nats", false},
		{"amqp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := testConfig()
			cfg.Source = tt.source

			src, err := newSource(cfg, pubSub, "observations")
			if tt.wantErr {
				if err == nil {
					t.Fatal("newSource() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newSource() error = %v", err)
			}
			if src.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.wantName)
			}
			if src.IsConnected() {
				t.Error("source should not connect until Connect is called")
			}
		})
	}
}

func TestNewSource_NATSSubjects(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	defer pubSub.Close()

	cfg := testConfig()
	cfg.Source = config.SourceNATS
	cfg.MQTT.Topics = []string{"sweet-home/#", "scenarios/+/+"}

	src, err := newSource(cfg, pubSub, "observations")
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	natsSrc, ok := src.(*transport.NATSSource)
	if !ok {
		t.Fatalf("source = %T, want *transport.NATSSource", src)
	}
	if len(natsSrc.Subjects()) < 2 {
		t.Errorf("Subjects() = %v, want subjects for both filters", natsSrc.Subjects())
	}
}

func TestConventions(t *testing.T) {
	c := conventions(testConfig())

	if c.AliasPrefix != "aliases" || c.AttributeMarker != "@" ||
		c.SetSuffix != "/cmd" || c.HeartbeatSuffix != "/alive" {
		t.Errorf("conventions() = %+v", c)
	}
}
