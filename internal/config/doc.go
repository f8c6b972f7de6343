// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package config provides centralized configuration management for Timelines.

Configuration is layered with Koanf v2. Later layers override earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/timelines/config.yaml or /etc/timelines/config.yml
 3. Environment variables

Only the environment variables listed in envMappings are read. Everything else
in the environment is ignored.

# Configuration Structure

  - Source: which bus to read from (mqtt or nats)
  - MQTTConfig: broker URI, credentials, topic filters, QoS, reconnect timing
  - NATSConfig: NATS URL and reconnect policy for the nats source
  - BrokerConfig: the optional embedded MQTT/NATS broker
  - StoreConfig: backend selection, measurement, timeouts, circuit breaker
  - InfluxConfig: InfluxDB 1.x connection for the influxdb backend
  - DuckDBConfig: database file for the duckdb backend
  - TopicsConfig: alias prefix, attribute marker and reserved suffixes
  - PipelineConfig: router close timeout and optional throttle
  - ServerConfig: metrics and health HTTP server
  - LoggingConfig: zerolog level, format and caller info

# Environment Variables

Source and MQTT:
  - SOURCE: mqtt or nats (default: mqtt)
  - MQTT_BROKER_URI: broker URI (default: mqtt://localhost:1883)
  - MQTT_USER, MQTT_PASS: credentials (default: none)
  - MQTT_CLIENT_ID: client id (default: timelines-<uuid>)
  - MQTT_TOPICS: ';'-separated filters (default: sweet-home/#;topics-aliases/#;scenarios/+/+)
  - MQTT_QOS: subscription QoS 0-2 (default: 0)
  - MQTT_TLS_INSECURE: skip broker certificate checks (default: true)

Store:
  - STORE_BACKEND: influxdb or duckdb (default: influxdb)
  - STORE_MEASUREMENT: measurement name (default: timelines)
  - INFLUX_HOST, INFLUX_PORT, INFLUX_DATABASE, INFLUX_USER, INFLUX_PASSWORD
  - DUCKDB_PATH: database file (default: /data/timelines.duckdb)

Topics:
  - ALIAS_TOPIC_PREFIX (default: topics-aliases)
  - ALIAS_ATTRIBUTE_MARKER (default: $)
  - SET_TOPIC_SUFFIX (default: /set)
  - HEARTBEAT_TOPIC_SUFFIX (default: $heartbeat)

HTTP and logging:
  - HTTP_ENABLED, HTTP_HOST, HTTP_PORT (default: true, 0.0.0.0, 9464)
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.MQTT.BrokerURI)

# Validation

Always-on sections are validated through struct tags (see internal/validation).
Source, backend, broker and server sections are validated only when selected
or enabled, so an unused InfluxDB section never blocks a DuckDB deployment.
*/
package config
