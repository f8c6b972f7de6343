// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/timelines/config.yaml",
	"/etc/timelines/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultTopics are subscribed when MQTT_TOPICS is not set.
var DefaultTopics = []string{"sweet-home/#", "topics-aliases/#", "scenarios/+/+"}

// defaultConfig returns a Config with every default applied.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Source: SourceMQTT,
		MQTT: MQTTConfig{
			BrokerURI:            "mqtt://localhost:1883",
			Topics:               append([]string(nil), DefaultTopics...),
			QoS:                  0,
			InsecureSkipVerify:   true, // brokers on home networks commonly use self-signed certs
			ConnectTimeout:       10 * time.Second,
			KeepAlive:            30 * time.Second,
			MaxReconnectInterval: time.Minute,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			MaxReconnects: -1, // Unlimited
			ReconnectWait: 2 * time.Second,
		},
		Broker: BrokerConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			MQTTPort: 1883,
			NATSPort: 4222,
			StoreDir: "/data/broker",
		},
		Store: StoreConfig{
			Backend:      BackendInfluxDB,
			Measurement:  "timelines",
			WriteTimeout: 30 * time.Second,
			DrainTimeout: 10 * time.Second,
			Breaker: BreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				Timeout:          30 * time.Second,
				Interval:         time.Minute,
			},
		},
		Influx: InfluxConfig{
			Host:     "localhost",
			Port:     8086,
			Database: "influx_db",
			Timeout:  10 * time.Second,
		},
		DuckDB: DuckDBConfig{
			Path: "/data/timelines.duckdb",
		},
		Topics: TopicsConfig{
			AliasPrefix:     "topics-aliases",
			AttributeMarker: "$",
			SetSuffix:       "/set",
			HeartbeatSuffix: "$heartbeat",
		},
		Pipeline: PipelineConfig{
			CloseTimeout:      30 * time.Second,
			ThrottlePerSecond: 0, // Unlimited
		},
		Server: ServerConfig{
			Enabled:   true,
			Host:      "0.0.0.0",
			Port:      9464,
			Timeout:   10 * time.Second,
			RateLimit: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, preferring CONFIG_PATH.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths maps list-valued paths to the separator used when they
// arrive as a single environment string.
var sliceConfigPaths = map[string]string{
	"mqtt.topics": ";",
}

// processSliceFields splits string values of list-valued paths. Empty entries
// are dropped; a value with no entries left becomes an empty list so
// validation reports it.
func processSliceFields(k *koanf.Koanf) error {
	for path, sep := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, sep)
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Names without an entry are ignored so unrelated variables never leak in.
var envMappings = map[string]string{
	"source": "source",

	"mqtt_broker_uri":             "mqtt.broker_uri",
	"mqtt_user":                   "mqtt.username",
	"mqtt_pass":                   "mqtt.password",
	"mqtt_client_id":              "mqtt.client_id",
	"mqtt_topics":                 "mqtt.topics",
	"mqtt_qos":                    "mqtt.qos",
	"mqtt_tls_insecure":           "mqtt.insecure_skip_verify",
	"mqtt_connect_timeout":        "mqtt.connect_timeout",
	"mqtt_keep_alive":             "mqtt.keep_alive",
	"mqtt_max_reconnect_interval": "mqtt.max_reconnect_interval",

	"nats_url":            "nats.url",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",

	"embedded_broker_enabled":   "broker.enabled",
	"embedded_broker_host":      "broker.host",
	"embedded_broker_mqtt_port": "broker.mqtt_port",
	"embedded_broker_nats_port": "broker.nats_port",
	"embedded_broker_store_dir": "broker.store_dir",

	"store_backend":           "store.backend",
	"store_measurement":       "store.measurement",
	"store_write_timeout":     "store.write_timeout",
	"store_drain_timeout":     "store.drain_timeout",
	"store_breaker_enabled":   "store.breaker.enabled",
	"store_breaker_failures":  "store.breaker.failure_threshold",
	"store_breaker_timeout":   "store.breaker.timeout",
	"store_breaker_interval":  "store.breaker.interval",
	"influx_host":             "influx.host",
	"influx_port":             "influx.port",
	"influx_database":         "influx.database",
	"influx_retention_policy": "influx.retention_policy",
	"influx_user":             "influx.username",
	"influx_password":         "influx.password",
	"influx_https":            "influx.https",
	"influx_tls_insecure":     "influx.insecure_skip_verify",
	"influx_timeout":          "influx.timeout",
	"duckdb_path":             "duckdb.path",

	"alias_topic_prefix":     "topics.alias_prefix",
	"alias_attribute_marker": "topics.attribute_marker",
	"set_topic_suffix":       "topics.set_suffix",
	"heartbeat_topic_suffix": "topics.heartbeat_suffix",

	"pipeline_close_timeout": "pipeline.close_timeout",
	"pipeline_throttle":      "pipeline.throttle_per_second",

	"http_enabled":    "server.enabled",
	"http_host":       "server.host",
	"http_port":       "server.port",
	"http_timeout":    "server.timeout",
	"http_rate_limit": "server.rate_limit",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - MQTT_BROKER_URI -> mqtt.broker_uri
//   - INFLUX_USER -> influx.username
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
