// Package config loads and validates the MiniTelemetry application
// configuration. Files may be JSON or YAML; defaults cover a local
// single-host deployment, and a handful of environment variables
// override the file for container use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// Duration is a time.Duration that unmarshals from "500ms"-style
// strings in both JSON and YAML, or from integer nanoseconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(value))
	case int:
		*d = Duration(time.Duration(value))
	case int64:
		*d = Duration(time.Duration(value))
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
	return nil
}

// PlatformConfig identifies this deployment.
type PlatformConfig struct {
	Org         string `json:"org" yaml:"org"`
	InstanceID  string `json:"instance_id" yaml:"instance_id"`
	Environment string `json:"environment" yaml:"environment"`
}

// NATSConfig holds transport connection settings.
type NATSConfig struct {
	URL              string   `json:"url" yaml:"url"`
	Name             string   `json:"name" yaml:"name"`
	ConnectTimeout   Duration `json:"connect_timeout" yaml:"connect_timeout"`
	MaxReconnects    int      `json:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait    Duration `json:"reconnect_wait" yaml:"reconnect_wait"`
	CircuitThreshold int      `json:"circuit_threshold" yaml:"circuit_threshold"`
	Subject          string   `json:"subject" yaml:"subject"`
}

// HubConfig holds sensor hub settings.
type HubConfig struct {
	NumSensors      int      `json:"num_sensors" yaml:"num_sensors"`
	Interval        Duration `json:"interval" yaml:"interval"`
	ArtificialDelay Duration `json:"artificial_delay" yaml:"artificial_delay"`
	QueueCapacity   int      `json:"queue_capacity" yaml:"queue_capacity"`
}

// FeedConfig holds the WebSocket snapshot feed settings.
type FeedConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Port     int      `json:"port" yaml:"port"`
	Path     string   `json:"path" yaml:"path"`
	Interval Duration `json:"interval" yaml:"interval"`
}

// MonitorConfig holds monitor settings.
type MonitorConfig struct {
	RefreshInterval    Duration   `json:"refresh_interval" yaml:"refresh_interval"`
	StalenessThreshold Duration   `json:"staleness_threshold" yaml:"staleness_threshold"`
	SeenWindow         int        `json:"seen_window" yaml:"seen_window"`
	Feed               FeedConfig `json:"feed" yaml:"feed"`
}

// LoggerConfig holds CSV sink settings.
type LoggerConfig struct {
	Path          string   `json:"path" yaml:"path"`
	FlushInterval Duration `json:"flush_interval" yaml:"flush_interval"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config is the complete application configuration. All three binaries
// read the same file and pick the sections they need.
type Config struct {
	Platform PlatformConfig `json:"platform" yaml:"platform"`
	NATS     NATSConfig     `json:"nats" yaml:"nats"`
	Hub      HubConfig      `json:"hub" yaml:"hub"`
	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
	Logger   LoggerConfig   `json:"logger" yaml:"logger"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// Default returns the configuration for a local single-host run.
func Default() *Config {
	return &Config{
		Platform: PlatformConfig{
			Org:         "minitelemetry",
			InstanceID:  uuid.NewString(),
			Environment: "dev",
		},
		NATS: NATSConfig{
			URL:              "nats://localhost:4222",
			Name:             "minitelemetry",
			ConnectTimeout:   Duration(5 * time.Second),
			MaxReconnects:    -1,
			ReconnectWait:    Duration(2 * time.Second),
			CircuitThreshold: 5,
			Subject:          "telemetry.readings",
		},
		Hub: HubConfig{
			NumSensors:    3,
			Interval:      Duration(500 * time.Millisecond),
			QueueCapacity: 0, // unbounded
		},
		Monitor: MonitorConfig{
			RefreshInterval:    Duration(2 * time.Second),
			StalenessThreshold: Duration(500 * time.Millisecond),
			SeenWindow:         1024,
			Feed: FeedConfig{
				Enabled:  false,
				Port:     8081,
				Path:     "/ws",
				Interval: Duration(2 * time.Second),
			},
		},
		Logger: LoggerConfig{
			Path:          "telemetry_log.csv",
			FlushInterval: Duration(time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies environment overrides, and
// validates the result. An empty path returns validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "read config file")
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		case ".json":
			err = json.Unmarshal(data, cfg)
		default:
			// Try YAML first since it is a superset of JSON for our shapes
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse config file")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets containers override the file without editing
// it. Only connection-level settings are exposed this way.
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("TELEMETRY_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if subject := os.Getenv("TELEMETRY_SUBJECT"); subject != "" {
		cfg.NATS.Subject = subject
	}
	if level := os.Getenv("TELEMETRY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if port := os.Getenv("TELEMETRY_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Metrics.Port = p
		}
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var problems []string

	if c.Platform.Org == "" {
		problems = append(problems, "platform.org is required")
	}
	if c.Platform.InstanceID == "" {
		c.Platform.InstanceID = uuid.NewString()
	}
	if c.NATS.URL == "" {
		problems = append(problems, "nats.url is required")
	}
	if c.NATS.Subject == "" {
		problems = append(problems, "nats.subject is required")
	}
	if strings.ContainsAny(c.NATS.Subject, " \t*>") {
		problems = append(problems, "nats.subject must be a literal subject")
	}
	if c.Hub.NumSensors <= 0 {
		problems = append(problems, "hub.num_sensors must be positive")
	}
	if c.Hub.Interval <= 0 {
		problems = append(problems, "hub.interval must be positive")
	}
	if c.Hub.QueueCapacity < 0 {
		problems = append(problems, "hub.queue_capacity must not be negative")
	}
	if c.Monitor.RefreshInterval <= 0 {
		problems = append(problems, "monitor.refresh_interval must be positive")
	}
	if c.Monitor.StalenessThreshold <= 0 {
		problems = append(problems, "monitor.staleness_threshold must be positive")
	}
	if c.Monitor.SeenWindow <= 0 {
		problems = append(problems, "monitor.seen_window must be positive")
	}
	if c.Logger.Path == "" {
		problems = append(problems, "logger.path is required")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		problems = append(problems, "metrics.port must be a valid port")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not json or text", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "check configuration")
	}
	return nil
}

// SaveToFile writes the configuration as indented JSON, mainly so
// operators can dump the effective defaults as a starting point.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Config", "SaveToFile", "marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "Config", "SaveToFile", "write config file")
	}
	return nil
}
