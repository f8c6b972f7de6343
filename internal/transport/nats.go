// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
)

const natsSourceName = "nats"

// NATSConfig configures the core NATS source.
type NATSConfig struct {
	URL string

	// Topics are MQTT filters; see FilterToSubjects for the mapping.
	Topics []string

	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// natsBufferSize is the capacity of the channel shared by all subscriptions.
// nats.go drops messages for a full channel and reports a slow consumer.
const natsBufferSize = 8192

// NATSSource reads MQTT-originated traffic over core NATS, typically from a
// nats-server with its MQTT gateway enabled. JetStream is not used: like a
// plain MQTT subscription, only live messages are delivered.
//
// Every subject feeds one channel drained by one forwarder, so messages reach
// the pipeline in the order the connection received them, across subjects.
type NATSSource struct {
	config      NATSConfig
	subjects    []string
	publisher   message.Publisher
	topic       string
	unmarshaler wmNats.Unmarshaler
	logger      zerolog.Logger

	mu     sync.Mutex
	conn   *natsgo.Conn
	subs   []*natsgo.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNATSSource prepares a source for the subjects derived from cfg.Topics.
func NewNATSSource(cfg NATSConfig, publisher message.Publisher, pipelineTopic string) (*NATSSource, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if len(cfg.Topics) == 0 {
		return nil, ErrNoTopics
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	seen := make(map[string]bool)
	var subjects []string
	for _, filter := range cfg.Topics {
		for _, subject := range FilterToSubjects(filter) {
			if !seen[subject] {
				seen[subject] = true
				subjects = append(subjects, subject)
			}
		}
	}

	return &NATSSource{
		config:      cfg,
		subjects:    subjects,
		publisher:   publisher,
		topic:       pipelineTopic,
		unmarshaler: subjectUnmarshaler{},
		logger:      logging.WithComponent("nats"),
	}, nil
}

// Name returns the source identifier used in metrics.
func (s *NATSSource) Name() string {
	return natsSourceName
}

// Subjects returns the NATS subjects the source subscribes to.
func (s *NATSSource) Subjects() []string {
	return append([]string(nil), s.subjects...)
}

// Connect dials NATS, subscribes every subject and starts forwarding.
// Interest is flushed to the server before Connect returns.
// Calling Connect on a connected source is a no-op.
func (s *NATSSource) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && !s.conn.IsClosed() {
		return nil
	}

	conn, err := natsgo.Connect(s.config.URL,
		natsgo.Name("timelines"),
		natsgo.MaxReconnects(s.config.MaxReconnects),
		natsgo.ReconnectWait(s.config.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			metrics.RecordSourceEvent(natsSourceName, "lost")
			if err != nil {
				s.logger.Warn().Err(err).Msg("NATS connection lost")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			metrics.RecordSourceEvent(natsSourceName, "connected")
			s.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			if errors.Is(err, natsgo.ErrSlowConsumer) {
				metrics.RecordMessageDropped("slow_consumer")
			}
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			s.logger.Warn().Err(err).Str("subject", subject).Msg("NATS async error")
		}),
	)
	if err != nil {
		metrics.RecordSourceEvent(natsSourceName, "connect_failed")
		return fmt.Errorf("%w: %s: %w", ErrConnect, s.config.URL, err)
	}

	inbox := make(chan *natsgo.Msg, natsBufferSize)
	subs := make([]*natsgo.Subscription, 0, len(s.subjects))
	for _, subject := range s.subjects {
		sub, err := conn.ChanSubscribe(subject, inbox)
		if err != nil {
			conn.Close()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, s.config.CloseTimeout)
	defer flushCancel()
	if err := conn.FlushWithContext(flushCtx); err != nil {
		conn.Close()
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.forward(runCtx, inbox)

	s.conn = conn
	s.subs = subs
	s.cancel = cancel

	metrics.RecordSourceEvent(natsSourceName, "connected")
	s.logger.Info().
		Str("url", conn.ConnectedUrl()).
		Strs("subjects", s.subjects).
		Msg("Subscribed to NATS subjects")
	return nil
}

// forward republishes every subscribed message into the pipeline, one at a
// time and in arrival order.
func (s *NATSSource) forward(ctx context.Context, inbox <-chan *natsgo.Msg) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-inbox:
			metrics.RecordMessageReceived(natsSourceName)

			msg, err := s.unmarshaler.Unmarshal(raw)
			if err != nil {
				metrics.RecordMessageDropped("unmarshal_failed")
				s.logger.Warn().Err(err).Str("subject", raw.Subject).Msg("Failed to decode NATS message")
				continue
			}
			if err := s.publisher.Publish(s.topic, msg); err != nil {
				metrics.RecordMessageDropped("publish_failed")
				s.logger.Warn().Err(err).Str("topic", msg.Metadata.Get(MetadataTopic)).Msg("Failed to hand message to pipeline")
			}
		}
	}
}

// IsConnected reports whether the NATS connection is up.
func (s *NATSSource) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.conn.IsConnected()
}

// Close unsubscribes, stops forwarding and closes the connection.
func (s *NATSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	var unsubErr error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && unsubErr == nil && !errors.Is(err, natsgo.ErrConnectionClosed) {
			unsubErr = err
		}
	}
	s.cancel()
	s.wg.Wait()
	if !s.conn.IsClosed() {
		s.conn.Close()
	}
	s.conn = nil
	s.subs = nil

	metrics.RecordSourceEvent(natsSourceName, "disconnected")
	s.logger.Info().Msg("Disconnected from NATS")
	if unsubErr != nil {
		return fmt.Errorf("unsubscribe nats: %w", unsubErr)
	}
	return nil
}

// subjectUnmarshaler turns raw NATS messages, which carry no watermill
// headers, into pipeline messages keyed by the MQTT topic.
type subjectUnmarshaler struct{}

var _ wmNats.Unmarshaler = subjectUnmarshaler{}

func (subjectUnmarshaler) Unmarshal(msg *natsgo.Msg) (*message.Message, error) {
	m := message.NewMessage(watermill.NewUUID(), msg.Data)
	m.Metadata.Set(MetadataTopic, SubjectToTopic(msg.Subject))
	return m, nil
}
