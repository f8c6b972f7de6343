// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package broker_test

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/timelines/internal/broker"
	"github.com/tomtom215/timelines/internal/testinfra"
)

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	srv := testinfra.StartEmbeddedBroker(t)

	if !srv.IsRunning() {
		t.Fatal("IsRunning() = false after start")
	}
	if !srv.JetStreamEnabled() {
		t.Error("JetStreamEnabled() = false, MQTT requires JetStream")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL() is empty")
	}

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect() error = %v", err)
	}
	nc.Close()
}

func TestEmbeddedServer_MQTTToNATS(t *testing.T) {
	srv := testinfra.StartEmbeddedBroker(t)

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect() error = %v", err)
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("sweet-home.>", msgs)
	if err != nil {
		t.Fatalf("ChanSubscribe() error = %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	if err := nc.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(srv.MQTTURL()).
		SetClientID("broker-test").
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if tok := client.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("MQTT connect failed: %v", tok.Error())
	}
	defer client.Disconnect(100)

	if tok := client.Publish("sweet-home/kitchen/temperature", 0, false, "21.5"); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("MQTT publish failed: %v", tok.Error())
	}

	select {
	case msg := <-msgs:
		if msg.Subject != "sweet-home.kitchen.temperature" {
			t.Errorf("subject = %q, want sweet-home.kitchen.temperature", msg.Subject)
		}
		if string(msg.Data) != "21.5" {
			t.Errorf("data = %q, want 21.5", msg.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("MQTT publish never reached the NATS subscriber")
	}
}

func TestEmbeddedServer_Shutdown(t *testing.T) {
	srv, err := broker.NewEmbeddedServer(broker.Config{
		Host:     "127.0.0.1",
		MQTTPort: testinfra.FreePort(t),
		NATSPort: testinfra.FreePort(t),
		StoreDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after Shutdown")
	}
}
