// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package transport connects Timelines to the message bus.

Two sources implement Source:

  - MQTTSource: a paho MQTT v3.1.1 client. Subscribes to the configured
    filters on every (re)connect and lets paho handle reconnects.
  - NATSSource: core NATS subscriptions on one connection. Each MQTT
    filter is translated to subjects (see FilterToSubjects), which matches
    how the nats-server MQTT gateway maps topics. All subjects share one
    channel and one forwarder, so cross-subject order is kept. Raw messages
    are decoded through a watermill-nats Unmarshaler.

Both publish every inbound message to a watermill Publisher (the pipeline's
in-process GoChannel). The payload is the raw message body and the original
topic travels in metadata under MetadataTopic:

	src, err := transport.NewMQTTSource(cfg, pipeline.Publisher(), eventprocessor.ObservationsTopic)
	if err != nil {
	    return err
	}
	if err := src.Connect(ctx); err != nil {
	    log.Fatal().Err(err).Msg("broker unreachable")
	}

Connection state is exported through metrics.SourceConnected and used by the
readiness probe.
*/
package transport
