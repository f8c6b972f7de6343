// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/timelines/internal/metrics"
	"github.com/tomtom215/timelines/internal/transport"
)

// ObservationsTopic is the in-process topic sources publish to.
const ObservationsTopic = "timelines.observations"

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:      30 * time.Second,
		ThrottlePerSecond: 0, // Disabled by default
	}
}

// Router wraps the Watermill Router and the in-process GoChannel that feeds it.
//
// Delivery is serial: the GoChannel blocks each Publish until the handler
// has acked, and a single consumer handler drains the topic. Messages are
// never nacked, since a redelivered observation would be processed twice.
type Router struct {
	router   *message.Router
	pubsub   *gochannel.GoChannel
	config   RouterConfig
	logger   watermill.LoggerAdapter
	running  atomic.Bool
	handlers map[string]*message.Handler
}

// NewRouter creates a new Watermill Router with pre-configured middleware.
// The router handles:
//   - Ack of every message, including failed ones (ackAlways)
//   - Panic recovery with stack trace logging
//   - Optional rate limiting (throttling)
func NewRouter(cfg *RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, logger)

	r := &Router{
		router:   wmRouter,
		pubsub:   pubsub,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
	}

	// Middleware in order (outer to inner):
	// 1. ackAlways - swallow handler errors so nothing is redelivered
	// 2. Recoverer - catch panics and convert to errors
	// 3. Throttle - rate limiting (if enabled)
	wmRouter.AddMiddleware(r.ackAlways)
	wmRouter.AddMiddleware(middleware.Recoverer)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	return r, nil
}

// ackAlways logs and counts handler errors, then reports success so the
// message is acked. Failures past this point are already lost; retrying
// would only repeat them.
func (r *Router) ackAlways(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			metrics.RecordMessageDropped("handler_error")
			r.logger.Error("Message handling failed", err, watermill.LogFields{
				"message_uuid": msg.UUID,
				"topic":        msg.Metadata.Get(transport.MetadataTopic),
			})
			return nil, nil
		}
		return produced, nil
	}
}

// Publisher returns the in-process publisher sources write to.
func (r *Router) Publisher() message.Publisher {
	return r.pubsub
}

// AddConsumerHandler registers a handler on ObservationsTopic.
// Register exactly one handler to keep delivery serial.
func (r *Router) AddConsumerHandler(name string, handler message.NoPublishHandlerFunc) *message.Handler {
	h := r.router.AddConsumerHandler(
		name,
		ObservationsTopic,
		r.pubsub,
		handler,
	)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// RunAsync starts the router in a goroutine and returns immediately.
// Returns a channel that will be closed when the router is running.
func (r *Router) RunAsync(ctx context.Context) <-chan struct{} {
	go func() {
		if err := r.Run(ctx); err != nil {
			r.logger.Error("Router error", err, nil)
		}
	}()
	return r.router.Running()
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting for in-flight messages up to CloseTimeout,
// then closes the GoChannel.
func (r *Router) Close() error {
	routerErr := r.router.Close()
	pubsubErr := r.pubsub.Close()
	if routerErr != nil {
		return fmt.Errorf("close router: %w", routerErr)
	}
	if pubsubErr != nil {
		return fmt.Errorf("close pubsub: %w", pubsubErr)
	}
	return nil
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// HealthCheck implements HealthCheckable.
func (r *Router) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   map[string]interface{}{"handlers": len(r.handlers)},
	}

	if r.IsRunning() {
		health.Healthy = true
		health.Message = "Router is running"
	} else {
		health.Error = "Router is not running"
	}
	return health
}
