// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

// Package validation wraps go-playground/validator v10 with a shared instance,
// the bridge's custom tags and readable error messages.
//
//	type MQTTConfig struct {
//	    BrokerURI string   `validate:"required,broker_uri"`
//	    Topics    []string `validate:"min=1,dive,mqtt_filter"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("configuration invalid: %w", err)
//	}
//
// Messages use the field namespace, for example
// "Config.MQTT.Topics[1] must be a valid MQTT topic filter".
package validation
