// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// validateNATSURL validates that the NATS URL is properly formatted.
// Supports: nats://, tls://, ws:// and wss:// schemes, and comma-separated
// cluster seed lists.
func validateNATSURL(rawURL string) error {
	for _, candidate := range strings.Split(rawURL, ",") {
		parsedURL, err := url.Parse(strings.TrimSpace(candidate))
		if err != nil {
			return fmt.Errorf("failed to parse URL: %w", err)
		}

		validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
		if !validSchemes[parsedURL.Scheme] {
			return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("host is required (e.g., localhost:4222, 192.168.1.100:4222, nats.example.com)")
		}
	}
	return nil
}

// joinHostPort renders host:port, bracketing IPv6 literals.
func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// MQTTAddr returns the embedded broker's MQTT listen address.
func (b BrokerConfig) MQTTAddr() string {
	return joinHostPort(b.Host, b.MQTTPort)
}

// NATSURL returns the nats:// URL clients use to reach the embedded broker.
func (b BrokerConfig) NATSURL() string {
	return "nats://" + joinHostPort(b.Host, b.NATSPort)
}
