package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "telemetry.readings", cfg.NATS.Subject)
	assert.Equal(t, 3, cfg.Hub.NumSensors)
	assert.Equal(t, 500*time.Millisecond, cfg.Hub.Interval.Std())
	assert.Equal(t, 2*time.Second, cfg.Monitor.RefreshInterval.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.StalenessThreshold.Std())
	assert.Equal(t, "telemetry_log.csv", cfg.Logger.Path)

	// Every default config gets a distinct instance id
	_, err := uuid.Parse(cfg.Platform.InstanceID)
	assert.NoError(t, err)
	assert.NotEqual(t, cfg.Platform.InstanceID, Default().Platform.InstanceID)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
platform:
  org: lab
  environment: test
nats:
  url: nats://nats.example:4222
hub:
  num_sensors: 5
  interval: 250ms
monitor:
  staleness_threshold: 1s
  feed:
    enabled: true
    port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lab", cfg.Platform.Org)
	assert.Equal(t, "nats://nats.example:4222", cfg.NATS.URL)
	assert.Equal(t, 5, cfg.Hub.NumSensors)
	assert.Equal(t, 250*time.Millisecond, cfg.Hub.Interval.Std())
	assert.Equal(t, time.Second, cfg.Monitor.StalenessThreshold.Std())
	assert.True(t, cfg.Monitor.Feed.Enabled)
	assert.Equal(t, 9000, cfg.Monitor.Feed.Port)

	// Untouched sections keep their defaults
	assert.Equal(t, "telemetry.readings", cfg.NATS.Subject)
	assert.Equal(t, 2*time.Second, cfg.Monitor.RefreshInterval.Std())
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "hub": {"num_sensors": 2, "interval": "100ms"},
  "logger": {"path": "out.csv", "flush_interval": "500ms"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Hub.NumSensors)
	assert.Equal(t, 100*time.Millisecond, cfg.Hub.Interval.Std())
	assert.Equal(t, "out.csv", cfg.Logger.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Logger.FlushInterval.Std())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Hub.NumSensors)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "hub: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEMETRY_NATS_URL", "nats://override:4222")
	t.Setenv("TELEMETRY_SUBJECT", "telemetry.test")
	t.Setenv("TELEMETRY_METRICS_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://override:4222", cfg.NATS.URL)
	assert.Equal(t, "telemetry.test", cfg.NATS.Subject)
	assert.Equal(t, 9999, cfg.Metrics.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no sensors", func(c *Config) { c.Hub.NumSensors = 0 }, "num_sensors"},
		{"negative queue", func(c *Config) { c.Hub.QueueCapacity = -1 }, "queue_capacity"},
		{"zero interval", func(c *Config) { c.Hub.Interval = 0 }, "interval"},
		{"empty url", func(c *Config) { c.NATS.URL = "" }, "nats.url"},
		{"wildcard subject", func(c *Config) { c.NATS.Subject = "telemetry.>" }, "subject"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad port", func(c *Config) { c.Metrics.Port = 70000 }, "metrics.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateFillsInstanceID(t *testing.T) {
	cfg := Default()
	cfg.Platform.InstanceID = ""
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Platform.InstanceID)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Hub.NumSensors = 7

	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Hub.NumSensors)
	assert.Equal(t, cfg.Hub.Interval, loaded.Hub.Interval)
}

func TestDurationUnmarshal(t *testing.T) {
	path := writeConfig(t, "config.json", `{"hub": {"interval": 250000000}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Hub.Interval.Std(), "integer nanoseconds accepted")
}
