// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewBreakerWriter(t *testing.T) {
	if _, err := NewBreakerWriter(nil, DefaultBreakerConfig("nil")); !errors.Is(err, ErrNilWriter) {
		t.Errorf("err = %v, want ErrNilWriter", err)
	}

	b, err := NewBreakerWriter(&mockWriter{}, DefaultBreakerConfig("test-breaker"))
	if err != nil {
		t.Fatalf("NewBreakerWriter() error = %v", err)
	}
	if b.State() != "closed" {
		t.Errorf("initial state = %s, want closed", b.State())
	}
}

func TestBreakerWriter_PassesThrough(t *testing.T) {
	w := &mockWriter{}
	b, _ := NewBreakerWriter(w, DefaultBreakerConfig("pass-through"))

	if err := b.WritePoints(context.Background(), []Point{testPoint("a")}); err != nil {
		t.Fatalf("WritePoints() error = %v", err)
	}
	if w.writes() != 1 {
		t.Errorf("writes = %d, want 1", w.writes())
	}

	writeErr := errors.New("test error")
	w.err = writeErr
	if err := b.WritePoints(context.Background(), []Point{testPoint("a")}); !errors.Is(err, writeErr) {
		t.Errorf("err = %v, want %v", err, writeErr)
	}
}

func TestBreakerWriter_OpensAfterFailures(t *testing.T) {
	w := &mockWriter{err: errors.New("fail")}
	b, _ := NewBreakerWriter(w, BreakerConfig{
		Name:             "open-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 2,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = b.WritePoints(ctx, []Point{testPoint("a")})
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	err := b.WritePoints(ctx, []Point{testPoint("a")})
	if !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("err = %v, want ErrBreakerOpen", err)
	}

	// After the open timeout one probe is let through and closes the breaker.
	time.Sleep(80 * time.Millisecond)
	w.err = nil
	if err := b.WritePoints(ctx, []Point{testPoint("a")}); err != nil {
		t.Fatalf("probe write error = %v", err)
	}
	if b.State() != "closed" {
		t.Errorf("state after successful probe = %s, want closed", b.State())
	}
}

func TestBreakerWriter_PingAndClose(t *testing.T) {
	pingErr := errors.New("down")
	w := &mockWriter{pingErr: pingErr}
	b, _ := NewBreakerWriter(w, DefaultBreakerConfig("ping"))

	if err := b.Ping(context.Background()); !errors.Is(err, pingErr) {
		t.Errorf("Ping() = %v, want %v", err, pingErr)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !w.closed {
		t.Error("Close() must close the wrapped writer")
	}
}
