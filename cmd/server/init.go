// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/timelines/internal/broker"
	"github.com/tomtom215/timelines/internal/config"
	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/store"
	"github.com/tomtom215/timelines/internal/timeline"
	"github.com/tomtom215/timelines/internal/transport"
)

// initBroker starts the embedded broker, or returns nil when it is disabled.
func initBroker(cfg *config.Config) (*broker.EmbeddedServer, error) {
	if !cfg.Broker.Enabled {
		return nil, nil
	}

	srv, err := broker.NewEmbeddedServer(broker.Config{
		Host:     cfg.Broker.Host,
		MQTTPort: cfg.Broker.MQTTPort,
		NATSPort: cfg.Broker.NATSPort,
		StoreDir: cfg.Broker.StoreDir,
	})
	if err != nil {
		return nil, fmt.Errorf("start embedded broker: %w", err)
	}

	logging.Info().
		Str("mqtt", srv.MQTTURL()).
		Str("nats", srv.ClientURL()).
		Msg("Embedded broker started")
	return srv, nil
}

// newWriter opens the configured backend, wrapped in a circuit breaker
// unless the breaker is disabled.
func newWriter(ctx context.Context, cfg *config.Config) (store.Writer, error) {
	var writer store.Writer
	switch cfg.Store.Backend {
	case config.BackendDuckDB:
		w, err := store.NewDuckDBWriter(ctx, cfg.DuckDB.Path)
		if err != nil {
			return nil, err
		}
		writer = w
	case config.BackendInfluxDB:
		w, err := store.NewInfluxWriter(store.InfluxConfig{
			Host:               cfg.Influx.Host,
			Port:               cfg.Influx.Port,
			Database:           cfg.Influx.Database,
			RetentionPolicy:    cfg.Influx.RetentionPolicy,
			Username:           cfg.Influx.Username,
			Password:           cfg.Influx.Password,
			UseHTTPS:           cfg.Influx.UseHTTPS,
			InsecureSkipVerify: cfg.Influx.InsecureSkipVerify,
			Timeout:            cfg.Influx.Timeout,
		})
		if err != nil {
			return nil, err
		}
		writer = w
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if !cfg.Store.Breaker.Enabled {
		return writer, nil
	}

	breakerCfg := store.DefaultBreakerConfig(cfg.Store.Backend)
	breakerCfg.FailureThreshold = cfg.Store.Breaker.FailureThreshold
	breakerCfg.Timeout = cfg.Store.Breaker.Timeout
	breakerCfg.Interval = cfg.Store.Breaker.Interval

	breaker, err := store.NewBreakerWriter(writer, breakerCfg)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	return breaker, nil
}

// initStore builds the fire-and-forget store over the configured backend.
func initStore(ctx context.Context, cfg *config.Config) (*store.AsyncStore, error) {
	writer, err := newWriter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	async, err := store.NewAsyncStore(writer,
		store.NewFailureLogger(cfg.Store.Backend),
		store.WithWriteTimeout(cfg.Store.WriteTimeout),
	)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	return async, nil
}

// newSource builds the configured bus source publishing into the pipeline.
func newSource(cfg *config.Config, publisher message.Publisher, pipelineTopic string) (transport.Source, error) {
	switch cfg.Source {
	case config.SourceNATS:
		return transport.NewNATSSource(transport.NATSConfig{
			URL:           cfg.NATS.URL,
			Topics:        cfg.MQTT.Topics,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			CloseTimeout:  cfg.Pipeline.CloseTimeout,
		}, publisher, pipelineTopic)
	case config.SourceMQTT:
		return transport.NewMQTTSource(transport.MQTTConfig{
			BrokerURI:            cfg.MQTT.BrokerURI,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			ClientID:             cfg.MQTT.ClientID,
			Topics:               cfg.MQTT.Topics,
			QoS:                  byte(cfg.MQTT.QoS),
			InsecureSkipVerify:   cfg.MQTT.InsecureSkipVerify,
			ConnectTimeout:       cfg.MQTT.ConnectTimeout,
			KeepAlive:            cfg.MQTT.KeepAlive,
			MaxReconnectInterval: cfg.MQTT.MaxReconnectInterval,
		}, publisher, pipelineTopic)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// conventions maps the topic settings onto the router's conventions.
func conventions(cfg *config.Config) timeline.Conventions {
	return timeline.Conventions{
		AliasPrefix:     cfg.Topics.AliasPrefix,
		AttributeMarker: cfg.Topics.AttributeMarker,
		SetSuffix:       cfg.Topics.SetSuffix,
		HeartbeatSuffix: cfg.Topics.HeartbeatSuffix,
	}
}
