// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/timelines/internal/logging"
)

// DefaultReadyTimeout bounds how long NewEmbeddedServer waits for listeners.
const DefaultReadyTimeout = 30 * time.Second

// ErrNotReady is returned when the server does not accept connections in time.
var ErrNotReady = errors.New("embedded broker not ready within timeout")

// Config holds embedded broker settings.
type Config struct {
	Host     string
	MQTTPort int
	NATSPort int

	// StoreDir holds JetStream state, which backs MQTT sessions and retained
	// messages. Retained values therefore survive restarts.
	StoreDir string

	ReadyTimeout time.Duration
}

// EmbeddedServer wraps a NATS server with its MQTT listener enabled.
// Devices publish over MQTT; the bridge can subscribe over either MQTT or
// core NATS, where topic "a/b" arrives as subject "a.b".
type EmbeddedServer struct {
	server    *server.Server
	config    Config
	clientURL string
	mqttAddr  string
}

// NewEmbeddedServer creates and starts an embedded broker.
// MQTT support in nats-server requires JetStream and a server name.
func NewEmbeddedServer(cfg Config) (*EmbeddedServer, error) {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}

	opts := &server.Options{
		ServerName: "timelines-broker",
		Host:       cfg.Host,
		Port:       cfg.NATSPort,
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		MQTT: server.MQTTOpts{
			Host: cfg.Host,
			Port: cfg.MQTTPort,
		},
		DontListen: false,
		NoSigs:     true,
		MaxPayload: 1024 * 1024, // 1MB, far above any sensor payload
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded broker: %w", err)
	}

	ns.SetLogger(newServerLogger(logging.WithComponent("broker")), false, false)

	go ns.Start()

	if !ns.ReadyForConnections(cfg.ReadyTimeout) {
		ns.Shutdown()
		return nil, ErrNotReady
	}

	s := &EmbeddedServer{
		server:    ns,
		config:    cfg,
		clientURL: ns.ClientURL(),
		mqttAddr:  net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.MQTTPort)),
	}

	logging.Info().
		Str("nats_url", s.clientURL).
		Str("mqtt_addr", s.mqttAddr).
		Str("store_dir", cfg.StoreDir).
		Msg("Embedded broker started")

	return s, nil
}

// ClientURL returns the nats:// URL for NATS clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// MQTTURL returns the mqtt:// URI for MQTT clients.
func (s *EmbeddedServer) MQTTURL() string {
	return "mqtt://" + s.mqttAddr
}

// Shutdown stops the server and waits for it to exit, or for ctx.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		logging.Info().Msg("Embedded broker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled returns whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// NumClients returns the number of connected NATS and MQTT clients.
func (s *EmbeddedServer) NumClients() int {
	return s.server.NumClients()
}
