// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
)

const mqttSourceName = "mqtt"

// MQTTConfig configures the MQTT source.
type MQTTConfig struct {
	BrokerURI string
	Username  string
	Password  string

	// ClientID defaults to timelines-<uuid>.
	ClientID string

	Topics []string
	QoS    byte

	// InsecureSkipVerify applies to mqtts, ssl, tls and wss brokers.
	InsecureSkipVerify bool

	ConnectTimeout       time.Duration
	KeepAlive            time.Duration
	MaxReconnectInterval time.Duration
}

// MQTTSource subscribes to the configured filters and publishes every
// message into the pipeline. Subscriptions are re-issued on each connect,
// so they survive broker restarts even with a clean session.
type MQTTSource struct {
	config    MQTTConfig
	client    mqtt.Client
	publisher message.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewMQTTSource builds the paho client. Nothing is dialed until Connect.
// Messages are published to the pipeline topic pipelineTopic.
func NewMQTTSource(cfg MQTTConfig, publisher message.Publisher, pipelineTopic string) (*MQTTSource, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if len(cfg.Topics) == 0 {
		return nil, ErrNoTopics
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "timelines-" + uuid.NewString()
	}

	s := &MQTTSource{
		config:    cfg,
		publisher: publisher,
		topic:     pipelineTopic,
		logger:    logging.WithComponent("mqtt"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURI).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost).
		SetReconnectingHandler(s.onReconnecting)

	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	if cfg.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	}
	if usesTLS(cfg.BrokerURI) {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // home brokers commonly use self-signed certs
			MinVersion:         tls.VersionTLS12,
		})
	}

	s.client = mqtt.NewClient(opts)
	return s, nil
}

func usesTLS(brokerURI string) bool {
	u, err := url.Parse(brokerURI)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "mqtts", "ssl", "tls", "wss":
		return true
	}
	return false
}

// Name returns the source identifier used in metrics.
func (s *MQTTSource) Name() string {
	return mqttSourceName
}

// ClientID returns the client id presented to the broker.
func (s *MQTTSource) ClientID() string {
	return s.config.ClientID
}

// Connect dials the broker and waits for the CONNACK or ctx. Once connected,
// paho reconnects on its own; calling Connect again is a no-op.
func (s *MQTTSource) Connect(ctx context.Context) error {
	if s.client.IsConnected() {
		return nil
	}

	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		metrics.RecordSourceEvent(mqttSourceName, "connect_failed")
		return fmt.Errorf("%w: %s: %w", ErrConnect, s.config.BrokerURI, err)
	}
	return nil
}

// IsConnected reports whether the connection is currently up.
func (s *MQTTSource) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects, allowing a short quiesce for in-progress work.
func (s *MQTTSource) Close() error {
	if !s.client.IsConnected() {
		return nil
	}
	s.client.Disconnect(250)
	metrics.RecordSourceEvent(mqttSourceName, "disconnected")
	s.logger.Info().Str("broker", s.config.BrokerURI).Msg("Disconnected from MQTT broker")
	return nil
}

// onConnect runs on its own goroutine after every successful (re)connect.
func (s *MQTTSource) onConnect(client mqtt.Client) {
	metrics.RecordSourceEvent(mqttSourceName, "connected")
	s.logger.Info().
		Str("broker", s.config.BrokerURI).
		Str("client_id", s.config.ClientID).
		Msg("Connected to MQTT broker")

	filters := make(map[string]byte, len(s.config.Topics))
	for _, topic := range s.config.Topics {
		filters[topic] = s.config.QoS
	}

	token := client.SubscribeMultiple(filters, s.handleMessage)
	if !token.WaitTimeout(s.subscribeTimeout()) {
		s.logger.Error().Strs("topics", s.config.Topics).Msg("MQTT subscribe timed out")
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Error().Err(err).Strs("topics", s.config.Topics).Msg("MQTT subscribe failed")
		return
	}

	s.logger.Info().Strs("topics", s.config.Topics).Uint8("qos", s.config.QoS).Msg("Subscribed to topics")
}

func (s *MQTTSource) subscribeTimeout() time.Duration {
	if s.config.ConnectTimeout > 0 {
		return s.config.ConnectTimeout
	}
	return 10 * time.Second
}

func (s *MQTTSource) onConnectionLost(_ mqtt.Client, err error) {
	metrics.RecordSourceEvent(mqttSourceName, "lost")
	s.logger.Warn().Err(err).Str("broker", s.config.BrokerURI).Msg("MQTT connection lost")
}

func (s *MQTTSource) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	metrics.RecordSourceEvent(mqttSourceName, "reconnecting")
	s.logger.Debug().Str("broker", s.config.BrokerURI).Msg("Reconnecting to MQTT broker")
}

// handleMessage forwards one MQTT message into the pipeline. With a blocking
// publisher it returns only after the pipeline handler has acked, which keeps
// delivery serial.
func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	metrics.RecordMessageReceived(mqttSourceName)

	m := message.NewMessage(watermill.NewUUID(), msg.Payload())
	m.Metadata.Set(MetadataTopic, msg.Topic())
	if msg.Retained() {
		m.Metadata.Set(MetadataRetained, "true")
	}

	if err := s.publisher.Publish(s.topic, m); err != nil {
		metrics.RecordMessageDropped("publish_failed")
		s.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Failed to hand message to pipeline")
	}
}
