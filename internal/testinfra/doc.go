// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package testinfra provides test infrastructure for integration testing.
//
// # Embedded Broker
//
// StartEmbeddedBroker runs an in-process MQTT/NATS broker on free ports. It
// needs no Docker and is used by the transport and end-to-end tests:
//
//	srv := testinfra.StartEmbeddedBroker(t)
//	opts := mqtt.NewClientOptions().AddBroker(srv.MQTTURL())
//
// # InfluxDB Container
//
// The InfluxContainer (build tag "integration") provides a real InfluxDB 1.8
// instance via testcontainers-go:
//
//	func TestInfluxWrite(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    influx, err := testinfra.NewInfluxContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, influx)
//
//	    w, err := store.NewInfluxWriter(store.InfluxConfig{
//	        Host: influx.Host, Port: influx.Port, Database: influx.Database,
//	    })
//	    // ...
//	}
//
// Run with:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable. First run may need
// to download the image.
package testinfra
