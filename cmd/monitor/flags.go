package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath         string
	LogLevel           string
	LogFormat          string
	StalenessThreshold time.Duration
	EnableFeed         bool
	Duration           time.Duration
	ShutdownTimeout    time.Duration
	ShowVersion        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("TELEMETRY_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: TELEMETRY_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	flag.StringVar(&cfg.LogFormat, "log-format", "",
		"Log format: json, text (overrides config)")

	flag.DurationVar(&cfg.StalenessThreshold, "staleness", 0,
		"Silence before a sensor is flagged stale (overrides config)")

	flag.BoolVar(&cfg.EnableFeed, "feed", false,
		"Enable the WebSocket snapshot feed")

	flag.DurationVar(&cfg.Duration, "duration",
		getEnvDuration("TELEMETRY_RUN_DURATION", 0),
		"Run duration, 0 to run until signalled (env: TELEMETRY_RUN_DURATION)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("TELEMETRY_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: TELEMETRY_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("invalid duration: %v", cfg.Duration)
	}
	return nil
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
