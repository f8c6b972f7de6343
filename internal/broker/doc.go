// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package broker runs an optional in-process MQTT broker for single-box
// deployments where no Mosquitto is available.
//
// The broker is nats-server with its MQTT listener enabled. MQTT clients
// connect to MQTTURL(); the bridge may subscribe over MQTT or over core NATS
// at ClientURL(), where MQTT topic "sweet-home/kitchen" is NATS subject
// "sweet-home.kitchen". JetStream is always on because nats-server keeps MQTT
// sessions and retained messages in JetStream streams under StoreDir.
//
// Lifecycle is owned by the supervisor (see supervisor/services.BrokerService).
package broker
