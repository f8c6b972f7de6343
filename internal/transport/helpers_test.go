// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const testPipelineTopic = "observations"

// newTestPipeline returns a blocking GoChannel and a live subscription to
// testPipelineTopic.
func newTestPipeline(t *testing.T) (*gochannel.GoChannel, <-chan *message.Message) {
	t.Helper()

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubsub.Subscribe(ctx, testPipelineTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	return pubsub, messages
}

// awaitMessage calls publish every 100ms until a pipeline message for topic
// arrives. Subscriptions are set up asynchronously, so early publishes may be
// lost.
func awaitMessage(t *testing.T, messages <-chan *message.Message, topic string, publish func()) *message.Message {
	t.Helper()

	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	publish()
	for {
		select {
		case msg := <-messages:
			msg.Ack()
			if msg.Metadata.Get(MetadataTopic) == topic {
				return msg
			}
		case <-ticker.C:
			publish()
		case <-deadline:
			t.Fatalf("no pipeline message for topic %q", topic)
			return nil
		}
	}
}

// newTestPublisher connects a plain paho client for injecting traffic.
func newTestPublisher(t *testing.T, brokerURI string) mqtt.Client {
	t.Helper()

	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(brokerURI).
		SetClientID("test-publisher-" + watermill.NewShortUUID()).
		SetConnectTimeout(5 * time.Second))
	if tok := client.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("test publisher connect failed: %v", tok.Error())
	}
	t.Cleanup(func() { client.Disconnect(100) })
	return client
}

func publishMQTT(t *testing.T, client mqtt.Client, topic, payload string, retained bool) {
	t.Helper()

	tok := client.Publish(topic, 1, retained, payload)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("publish %s failed: %v", topic, tok.Error())
	}
}
