package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Lunchbox device agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Hub       HubConfig       `yaml:"hub"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig contains device identity and metadata.
type DeviceConfig struct {
	// ConnectionString is the hub-issued device connection string:
	// HostName=...;DeviceId=...;SharedAccessKey=...
	// Always set via LUNCHBOX_CONNECTION_STRING in production.
	ConnectionString string `yaml:"connection_string"`

	// Model and Manufacturer are reported by the getDeviceInfo method.
	Model        string `yaml:"model"`
	Manufacturer string `yaml:"manufacturer"`
}

// HubConfig contains IoT Hub session settings.
type HubConfig struct {
	// APIVersion is the hub API version marker in the MQTT username.
	APIVersion string `yaml:"api_version"`

	// PolicyName is the optional shared access policy (skn) for tokens.
	PolicyName string `yaml:"policy_name"`

	// Port is the broker port. Default: 8883.
	Port int `yaml:"port"`

	// TokenTTL is the SAS token validity window in minutes.
	TokenTTL int `yaml:"token_ttl"`

	// ReconnectInterval is the fixed backoff between connection
	// attempts, in seconds.
	ReconnectInterval int `yaml:"reconnect_interval"`

	// ConnectTimeout is the CONNACK wait bound in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	// QoS is the MQTT quality of service level (0, 1, or 2).
	QoS int `yaml:"qos"`

	// DisableAuth skips SAS token generation (simulation only).
	DisableAuth bool `yaml:"disable_auth"`

	// DisableTLS connects in plaintext (local broker testing only).
	DisableTLS bool `yaml:"disable_tls"`
}

// TelemetryConfig contains sensor reporting settings.
type TelemetryConfig struct {
	// Interval is the reporting period in seconds. The hub can adjust
	// it at runtime through the twin's desired telemetryInterval.
	Interval int `yaml:"interval"`

	// SpoolEnabled buffers undeliverable readings in SQLite and drains
	// them once the session is re-established.
	SpoolEnabled bool `yaml:"spool_enabled"`

	// SpoolBatch is the maximum number of spooled readings drained per
	// reporting cycle.
	SpoolBatch int `yaml:"spool_batch"`
}

// DatabaseConfig contains SQLite settings for the telemetry spool.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains settings for the optional local telemetry mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUNCHBOX_SECTION_KEY
// For example: LUNCHBOX_CONNECTION_STRING, LUNCHBOX_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Model:        "lunchbox-esp32",
			Manufacturer: "Lunchbox Monitoring",
		},
		Hub: HubConfig{
			APIVersion:        "2021-04-12",
			Port:              8883,
			TokenTTL:          60,
			ReconnectInterval: 10,
			ConnectTimeout:    15,
			QoS:               1,
		},
		Telemetry: TelemetryConfig{
			Interval:     30,
			SpoolEnabled: true,
			SpoolBatch:   25,
		},
		Database: DatabaseConfig{
			Path:        "./data/lunchbox.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LUNCHBOX_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device - connection string carries the shared secret
	// (IMPORTANT: always set via environment in production)
	if v := os.Getenv("LUNCHBOX_CONNECTION_STRING"); v != "" {
		cfg.Device.ConnectionString = v
	}

	// Database
	if v := os.Getenv("LUNCHBOX_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("LUNCHBOX_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("LUNCHBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ConnectionString == "" {
		errs = append(errs, "device.connection_string is required (set LUNCHBOX_CONNECTION_STRING environment variable)")
	}

	if c.Hub.QoS < 0 || c.Hub.QoS > 2 {
		errs = append(errs, "hub.qos must be 0, 1, or 2")
	}
	if c.Hub.TokenTTL <= 0 {
		errs = append(errs, "hub.token_ttl must be positive")
	}
	if c.Hub.ReconnectInterval <= 0 {
		errs = append(errs, "hub.reconnect_interval must be positive")
	}

	if c.Telemetry.Interval <= 0 {
		errs = append(errs, "telemetry.interval must be positive")
	}
	if c.Telemetry.SpoolEnabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when telemetry.spool_enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTokenTTL returns the SAS token TTL as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Hub.TokenTTL) * time.Minute
}

// GetReconnectInterval returns the reconnect backoff as a Duration.
func (c *Config) GetReconnectInterval() time.Duration {
	return time.Duration(c.Hub.ReconnectInterval) * time.Second
}

// GetConnectTimeout returns the CONNACK wait bound as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Hub.ConnectTimeout) * time.Second
}

// GetTelemetryInterval returns the reporting period as a Duration.
func (c *Config) GetTelemetryInterval() time.Duration {
	return time.Duration(c.Telemetry.Interval) * time.Second
}
