// Package main implements the telemetry monitor binary. It subscribes
// to the readings subject, tracks per-sensor sequence continuity and
// rolling statistics, and renders a throttled console dashboard, with
// an optional WebSocket snapshot feed for external viewers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/component"
	"github.com/rishabhfit2026/MiniTelemetry/config"
	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/monitor"
	"github.com/rishabhfit2026/MiniTelemetry/natsclient"
	"github.com/rishabhfit2026/MiniTelemetry/pkg/retry"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "monitor"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("monitor failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, cliCfg)

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	slog.Info("starting monitor",
		"version", Version,
		"subject", cfg.NATS.Subject,
		"refresh", cfg.Monitor.RefreshInterval.Std(),
		"staleness_threshold", cfg.Monitor.StalenessThreshold.Std())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cliCfg.Duration > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cliCfg.Duration)
		defer timeoutCancel()
	}

	natsClient, registry, metricsServer, err := setupInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if metricsServer != nil {
			_ = metricsServer.Stop()
		}
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = natsClient.Close(closeCtx)
	}()

	deps := &component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: registry,
		Logger:          logger,
		Platform: component.PlatformMeta{
			Org:      cfg.Platform.Org,
			Instance: cfg.Platform.InstanceID,
		},
	}

	tracker := monitor.NewTracker(monitor.TrackerConfig{
		StalenessThreshold: cfg.Monitor.StalenessThreshold.Std(),
		SeenWindow:         uint64(cfg.Monitor.SeenWindow),
	}, deps.GetLoggerWithComponent("tracker"), deps.CoreMetrics())

	receiver, err := monitor.NewReceiver(natsClient, cfg.NATS.Subject, tracker,
		deps.GetLoggerWithComponent("receiver"))
	if err != nil {
		return fmt.Errorf("create receiver: %w", err)
	}

	dashboard, err := monitor.NewDashboard(tracker, os.Stdout,
		cfg.Monitor.RefreshInterval.Std(), deps.GetLoggerWithComponent("dashboard"))
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}

	manager := component.NewManager(logger)
	components := []component.LifecycleComponent{receiver, dashboard}

	if cfg.Monitor.Feed.Enabled {
		feed, err := monitor.NewFeed(monitor.FeedConfig{
			Port:     cfg.Monitor.Feed.Port,
			Path:     cfg.Monitor.Feed.Path,
			Interval: cfg.Monitor.Feed.Interval.Std(),
		}, tracker, deps.GetLoggerWithComponent("feed"))
		if err != nil {
			return fmt.Errorf("create feed: %w", err)
		}
		components = append(components, feed)
	}

	for _, comp := range components {
		if err := manager.Register(comp); err != nil {
			return fmt.Errorf("register %s: %w", comp.Name(), err)
		}
	}

	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("initialize components: %w", err)
	}
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}

	slog.Info("monitor running, Ctrl-C to stop")
	<-ctx.Done()
	slog.Info("shutting down")

	if err := manager.Stop(cliCfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("monitor shutdown complete")
	return nil
}

// applyFlagOverrides lets explicit CLI flags win over the config file.
func applyFlagOverrides(cfg *config.Config, cliCfg *CLIConfig) {
	if cliCfg.StalenessThreshold > 0 {
		cfg.Monitor.StalenessThreshold = config.Duration(cliCfg.StalenessThreshold)
	}
	if cliCfg.EnableFeed {
		cfg.Monitor.Feed.Enabled = true
	}
	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}
}

// setupInfrastructure connects NATS and starts the metrics endpoint.
func setupInfrastructure(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*natsclient.Client, *metric.MetricsRegistry, *metric.Server, error) {
	registry := metric.NewMetricsRegistry()

	natsClient, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name+"-"+appName),
		natsclient.WithTimeout(cfg.NATS.ConnectTimeout.Std()),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithCircuitBreakerThreshold(int32(cfg.NATS.CircuitThreshold)),
		natsclient.WithMetrics(registry),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := retry.Do(ctx, retry.Quick(), func() error {
		return natsClient.Connect(ctx)
	}); err != nil {
		return nil, nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return nil, nil, nil, fmt.Errorf("NATS connection timeout: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	return natsClient, registry, metricsServer, nil
}
