// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package testinfra

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/tomtom215/timelines/internal/broker"
)

// FreePort returns a TCP port that was free a moment ago on 127.0.0.1.
func FreePort(t testing.TB) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

// StartEmbeddedBroker starts an in-process MQTT/NATS broker on free ports
// with state in a temp dir. It is shut down when the test ends.
func StartEmbeddedBroker(t testing.TB) *broker.EmbeddedServer {
	t.Helper()

	srv, err := broker.NewEmbeddedServer(broker.Config{
		Host:         "127.0.0.1",
		MQTTPort:     FreePort(t),
		NATSPort:     FreePort(t),
		StoreDir:     t.TempDir(),
		ReadyTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to start embedded broker: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Logf("Warning: embedded broker shutdown: %v", err)
		}
	})

	return srv
}
