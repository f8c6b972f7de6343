// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/timelines/internal/metrics"
	"github.com/tomtom215/timelines/internal/transport"
)

// startRouter runs a router with handler registered and waits until it is
// subscribed.
func startRouter(t *testing.T, cfg *RouterConfig, handler message.NoPublishHandlerFunc) *Router {
	t.Helper()

	r, err := NewRouter(cfg, nil)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	r.AddConsumerHandler("test", handler)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
	})

	select {
	case <-r.RunAsync(ctx):
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return r
}

func publishObservation(t *testing.T, r *Router, topic, payload string) {
	t.Helper()

	msg := message.NewMessage(watermill.NewUUID(), []byte(payload))
	if topic != "" {
		msg.Metadata.Set(transport.MetadataTopic, topic)
	}
	if err := r.Publisher().Publish(ObservationsTopic, msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()

	if cfg.CloseTimeout != 30*time.Second {
		t.Errorf("CloseTimeout = %v, want %v", cfg.CloseTimeout, 30*time.Second)
	}
	if cfg.ThrottlePerSecond != 0 {
		t.Errorf("ThrottlePerSecond = %d, want 0", cfg.ThrottlePerSecond)
	}
}

func TestRouter_Lifecycle(t *testing.T) {
	r, err := NewRouter(nil, nil)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	r.AddConsumerHandler("noop", func(*message.Message) error { return nil })

	if r.IsRunning() {
		t.Error("IsRunning() = true before Run")
	}
	if h := r.HealthCheck(context.Background()); h.Healthy {
		t.Error("HealthCheck().Healthy = true before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case <-r.RunAsync(ctx):
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	if !r.IsRunning() {
		t.Error("IsRunning() = false after Running closed")
	}
	h := r.HealthCheck(context.Background())
	if !h.Healthy {
		t.Errorf("HealthCheck() = %+v, want healthy", h)
	}
	if h.Details["handlers"] != 1 {
		t.Errorf("handlers detail = %v, want 1", h.Details["handlers"])
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if r.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
}

func TestRouter_SerialDelivery(t *testing.T) {
	var (
		mu       sync.Mutex
		seen     []string
		inFlight int
		overlap  bool
	)

	r := startRouter(t, nil, func(msg *message.Message) error {
		mu.Lock()
		inFlight++
		if inFlight > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		seen = append(seen, string(msg.Payload))
		inFlight--
		mu.Unlock()
		return nil
	})

	want := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for _, v := range want {
		publishObservation(t, r, "sweet-home/counter", v)

		// Publish blocks until the handler has acked.
		mu.Lock()
		last := seen[len(seen)-1]
		mu.Unlock()
		if last != v {
			t.Fatalf("after publishing %s last handled = %s", v, last)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("handler ran concurrently")
	}
	if len(seen) != len(want) {
		t.Errorf("handled %d messages, want %d", len(seen), len(want))
	}
}

func TestRouter_AckAlways(t *testing.T) {
	tests := []struct {
		name    string
		handler message.NoPublishHandlerFunc
	}{
		{
			name:    "error",
			handler: func(*message.Message) error { return errors.New("boom") },
		},
		{
			name:    "panic",
			handler: func(*message.Message) error { panic("boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			var mu sync.Mutex
			r := startRouter(t, nil, func(msg *message.Message) error {
				mu.Lock()
				calls++
				mu.Unlock()
				return tt.handler(msg)
			})

			before := testutil.ToFloat64(metrics.MessagesDropped.WithLabelValues("handler_error"))

			done := make(chan error, 1)
			go func() {
				msg := message.NewMessage(watermill.NewUUID(), []byte("1"))
				msg.Metadata.Set(transport.MetadataTopic, "sweet-home/x")
				done <- r.Publisher().Publish(ObservationsTopic, msg)
			}()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("Publish() error = %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("publish did not return; failed message was not acked")
			}

			after := testutil.ToFloat64(metrics.MessagesDropped.WithLabelValues("handler_error"))
			if after-before != 1 {
				t.Errorf("handler_error drops = %v, want 1", after-before)
			}

			// Give a redelivery a chance to show up.
			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			if calls != 1 {
				t.Errorf("handler calls = %d, want 1 (no redelivery)", calls)
			}
		})
	}
}

func TestRouter_Throttle(t *testing.T) {
	var mu sync.Mutex
	var handled int

	r := startRouter(t, &RouterConfig{CloseTimeout: time.Second, ThrottlePerSecond: 20}, func(*message.Message) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})

	start := time.Now()
	for i := 0; i < 5; i++ {
		publishObservation(t, r, "sweet-home/x", "1")
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("5 messages at 20/s took %v, want throttled", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if handled != 5 {
		t.Errorf("handled = %d, want 5", handled)
	}
}
