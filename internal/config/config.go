// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package config

import (
	"time"
)

// Source names the bus the bridge subscribes to.
const (
	SourceMQTT = "mqtt"
	SourceNATS = "nats"
)

// Backend names the time-series store.
const (
	BackendInfluxDB = "influxdb"
	BackendDuckDB   = "duckdb"
)

// Config holds all application configuration.
// Sections that only apply to one source or backend are validated only when
// that source or backend is selected.
type Config struct {
	Source   string         `koanf:"source" validate:"oneof=mqtt nats"`
	MQTT     MQTTConfig     `koanf:"mqtt" validate:"-"`
	NATS     NATSConfig     `koanf:"nats" validate:"-"`
	Broker   BrokerConfig   `koanf:"broker" validate:"-"`
	Store    StoreConfig    `koanf:"store"`
	Influx   InfluxConfig   `koanf:"influx" validate:"-"`
	DuckDB   DuckDBConfig   `koanf:"duckdb" validate:"-"`
	Topics   TopicsConfig   `koanf:"topics"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Server   ServerConfig   `koanf:"server" validate:"-"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// MQTTConfig holds the MQTT source settings.
type MQTTConfig struct {
	BrokerURI string `koanf:"broker_uri" validate:"required,broker_uri"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`

	// ClientID is generated as timelines-<uuid> when empty.
	ClientID string `koanf:"client_id"`

	// Topics are subscription filters. MQTT_TOPICS separates them with ';'.
	Topics []string `koanf:"topics" validate:"min=1,dive,mqtt_filter"`

	QoS int `koanf:"qos" validate:"min=0,max=2"`

	// InsecureSkipVerify disables broker certificate checks for mqtts/ssl/wss.
	InsecureSkipVerify bool `koanf:"insecure_skip_verify"`

	ConnectTimeout       time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	KeepAlive            time.Duration `koanf:"keep_alive" validate:"gt=0"`
	MaxReconnectInterval time.Duration `koanf:"max_reconnect_interval" validate:"gt=0"`
}

// NATSConfig holds the NATS source settings. The subjects subscribed to are
// derived from the MQTT topic filters.
type NATSConfig struct {
	URL           string        `koanf:"url" validate:"required"`
	MaxReconnects int           `koanf:"max_reconnects" validate:"gte=-1"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"gt=0"`
}

// BrokerConfig holds the embedded broker settings.
type BrokerConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host" validate:"required"`
	MQTTPort int    `koanf:"mqtt_port" validate:"min=1,max=65535"`
	NATSPort int    `koanf:"nats_port" validate:"min=1,max=65535,nefield=MQTTPort"`
	StoreDir string `koanf:"store_dir" validate:"required"`
}

// StoreConfig selects and tunes the store.
type StoreConfig struct {
	Backend      string        `koanf:"backend" validate:"oneof=influxdb duckdb"`
	Measurement  string        `koanf:"measurement" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gt=0"`
	Breaker      BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around the store writer.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
}

// InfluxConfig holds InfluxDB 1.x connection settings.
type InfluxConfig struct {
	Host               string        `koanf:"host" validate:"required"`
	Port               int           `koanf:"port" validate:"min=1,max=65535"`
	Database           string        `koanf:"database" validate:"required"`
	RetentionPolicy    string        `koanf:"retention_policy"`
	Username           string        `koanf:"username"`
	Password           string        `koanf:"password"`
	UseHTTPS           bool          `koanf:"https"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`
}

// DuckDBConfig holds the embedded DuckDB settings.
type DuckDBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// TopicsConfig names the reserved topic shapes.
type TopicsConfig struct {
	AliasPrefix     string `koanf:"alias_prefix" validate:"required"`
	AttributeMarker string `koanf:"attribute_marker"`
	SetSuffix       string `koanf:"set_suffix" validate:"required"`
	HeartbeatSuffix string `koanf:"heartbeat_suffix" validate:"required"`
}

// PipelineConfig tunes the message router.
type PipelineConfig struct {
	CloseTimeout      time.Duration `koanf:"close_timeout" validate:"gt=0"`
	ThrottlePerSecond int64         `koanf:"throttle_per_second" validate:"gte=0"`
}

// ServerConfig holds the metrics and health HTTP server settings.
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"required"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
