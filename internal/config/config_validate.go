// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Always-on sections are checked by struct tags; source, backend, broker and
// server sections are checked only when selected or enabled.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateSource,
		c.validateBackend,
		c.validateBroker,
		c.validateServer,
		c.validateTopics,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateSource validates the settings of the selected bus.
func (c *Config) validateSource() error {
	switch c.Source {
	case SourceMQTT:
		if err := validation.ValidateStruct(&c.MQTT); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	case SourceNATS:
		if err := validation.ValidateStruct(&c.NATS); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		// Subjects are derived from the MQTT filters.
		if len(c.MQTT.Topics) == 0 {
			return fmt.Errorf("MQTT_TOPICS must name at least one filter")
		}
		for _, filter := range c.MQTT.Topics {
			if !validation.IsTopicFilter(filter) {
				return fmt.Errorf("MQTT_TOPICS contains an invalid filter: %q", filter)
			}
		}
	}
	return nil
}

// validateBackend validates the settings of the selected store.
func (c *Config) validateBackend() error {
	switch c.Store.Backend {
	case BackendInfluxDB:
		if err := validation.ValidateStruct(&c.Influx); err != nil {
			return fmt.Errorf("influx: %w", err)
		}
	case BackendDuckDB:
		if err := validation.ValidateStruct(&c.DuckDB); err != nil {
			return fmt.Errorf("duckdb: %w", err)
		}
	}
	return nil
}

// validateBroker validates the embedded broker (only if enabled).
func (c *Config) validateBroker() error {
	if !c.Broker.Enabled {
		return nil
	}
	if err := validation.ValidateStruct(&c.Broker); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if c.Server.Enabled && c.Server.Port == c.Broker.MQTTPort {
		return fmt.Errorf("HTTP_PORT and EMBEDDED_BROKER_MQTT_PORT must differ, both are %d", c.Server.Port)
	}
	return nil
}

// validateServer validates the HTTP server (only if enabled).
func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if err := validation.ValidateStruct(&c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// validateTopics rejects reserved shapes that could never match a topic.
func (c *Config) validateTopics() error {
	if strings.ContainsAny(c.Topics.AliasPrefix, "#+") {
		return fmt.Errorf("ALIAS_TOPIC_PREFIX must not contain wildcards: %q", c.Topics.AliasPrefix)
	}
	if strings.HasSuffix(c.Topics.AliasPrefix, "/") {
		return fmt.Errorf("ALIAS_TOPIC_PREFIX must not end with '/': %q", c.Topics.AliasPrefix)
	}
	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
