// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

type testConfig struct {
	BrokerURI string   `validate:"required,broker_uri"`
	Topics    []string `validate:"min=1,dive,mqtt_filter"`
	QoS       int      `validate:"min=0,max=2"`
	Format    string   `validate:"oneof=json console"`
}

func validTestConfig() testConfig {
	return testConfig{
		BrokerURI: "mqtt://localhost:1883",
		Topics:    []string{"sweet-home/#", "scenarios/+/+"},
		QoS:       0,
		Format:    "json",
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *testConfig)
		wantErr string
	}{
		{"valid", func(*testConfig) {}, ""},
		{"missing broker", func(c *testConfig) { c.BrokerURI = "" }, "testConfig.BrokerURI is required"},
		{"http broker", func(c *testConfig) { c.BrokerURI = "http://localhost" }, "must be a broker URI"},
		{"no topics", func(c *testConfig) { c.Topics = nil }, "must be at least 1 entries"},
		{"bad filter", func(c *testConfig) { c.Topics = []string{"a/#/b"} }, "testConfig.Topics[0] must be a valid MQTT topic filter"},
		{"qos too high", func(c *testConfig) { c.QoS = 3 }, "must be at most 2"},
		{"bad format", func(c *testConfig) { c.Format = "xml" }, "must be one of: json console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)

			err := ValidateStruct(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateStruct() = %q, want it to contain %q", err.Error(), tt.wantErr)
			}

			var verrs Errors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Errorf("error should be a non-empty Errors, got %T", err)
			}
		})
	}
}

func TestValidateStruct_CollectsAllErrors(t *testing.T) {
	cfg := testConfig{Format: "json"}
	err := ValidateStruct(&cfg)

	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %T, want Errors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("errors = %d (%v), want 2", len(verrs), err)
	}
}

func TestIsTopicFilter(t *testing.T) {
	tests := map[string]bool{
		"sweet-home/#":         true,
		"#":                    true,
		"+":                    true,
		"scenarios/+/+":        true,
		"topics-aliases/#":     true,
		"a/b/c":                true,
		"$SYS/#":               true,
		"":                     false,
		"a/#/b":                false,
		"a/b#":                 false,
		"a/+b/c":               false,
		"sweet-home/device+":   false,
		"sweet-home//trailing": true,
	}
	for filter, want := range tests {
		if got := IsTopicFilter(filter); got != want {
			t.Errorf("IsTopicFilter(%q) = %v, want %v", filter, got, want)
		}
	}
}

func TestIsBrokerURI(t *testing.T) {
	tests := map[string]bool{
		"mqtt://localhost:1883":     true,
		"mqtts://broker.local:8883": true,
		"tcp://10.0.0.5:1883":       true,
		"ws://broker:9001/mqtt":     true,
		"http://localhost:1883":     false,
		"localhost:1883":            false,
		"mqtt://":                   false,
		"":                          false,
	}
	for uri, want := range tests {
		if got := IsBrokerURI(uri); got != want {
			t.Errorf("IsBrokerURI(%q) = %v, want %v", uri, got, want)
		}
	}
}
