// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package main is the entry point for the Timelines bridge.

Timelines subscribes to a home-automation message bus (MQTT, or NATS through
its MQTT gateway) and archives every changed value as a time-series point in
InfluxDB 1.x or DuckDB. Alias definitions published under topics-aliases/
attach human-readable names to device topics.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("timelines")
	├── IngestSupervisor ("ingest-layer")
	│   ├── Embedded broker (optional, EMBEDDED_BROKER_ENABLED)
	│   ├── Pipeline (watermill router, single consumer)
	│   └── Source (MQTT or NATS)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (/metrics, /api/v1/health/*)

Startup order:

 1. Configuration: Koanf v2 with environment variables and config file
 2. Logging: zerolog with JSON/console output modes
 3. Embedded broker, when enabled
 4. Store: InfluxDB or DuckDB writer, circuit breaker, async submitter
 5. Pipeline: state tracker, alias registry, message router
 6. Supervisor tree with pipeline, broker and HTTP server
 7. Source connect, once the pipeline is consuming

A source that cannot connect at startup is fatal. After that the client
libraries reconnect on their own.

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	SOURCE=mqtt                      # mqtt or nats
	MQTT_BROKER_URI=mqtt://localhost:1883
	MQTT_TOPICS="sweet-home/#;topics-aliases/#;scenarios/+/+"
	STORE_BACKEND=influxdb           # influxdb or duckdb
	INFLUX_HOST=localhost
	INFLUX_DATABASE=influx_db
	LOG_LEVEL=info                   # trace, debug, info, warn, error
	LOG_FORMAT=json                  # json or console

# Signal Handling

On SIGINT or SIGTERM:

 1. The source disconnects
 2. The pipeline closes once the source has stopped
 3. The embedded broker shuts down once the source has stopped
 4. In-flight store writes drain for up to STORE_DRAIN_TIMEOUT
 5. Services that failed to stop are reported

# Usage

	export MQTT_BROKER_URI=mqtts://broker.lan:8883 MQTT_USER=bridge MQTT_PASS=xxx
	export INFLUX_HOST=influx.lan INFLUX_DATABASE=home
	./timelines
*/
package main
