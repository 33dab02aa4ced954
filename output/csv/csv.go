// Package csv implements the telemetry CSV logger sink. It subscribes
// to the readings subject and appends one row per reading to a CSV
// file, flushing buffered rows on a fixed interval and at shutdown.
package csv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/component"
	"github.com/rishabhfit2026/MiniTelemetry/errors"
	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/telemetry"
)

// Header is the first row of every log file.
const Header = "timestamp,sensor_id,value,sequence,received_at"

// DefaultPath is where rows land when no path is configured.
const DefaultPath = "telemetry_log.csv"

// DefaultFlushInterval bounds how long a row can sit in the buffer
// before it reaches disk.
const DefaultFlushInterval = time.Second

// progressEvery controls how often the sink logs a progress line.
const progressEvery = 25

// receivedAtLayout formats the local wall-clock arrival time with
// millisecond precision.
const receivedAtLayout = "2006-01-02 15:04:05.000"

// Subscriber is the inbound transport boundary. The NATS client
// satisfies it; tests substitute a direct feed.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// Config holds CSV sink configuration.
type Config struct {
	Path          string        `json:"path" yaml:"path"`
	Subject       string        `json:"subject" yaml:"subject"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flushInterval"`
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Subject == "" {
		c.Subject = "telemetry.readings"
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	return nil
}

// Sink writes readings to a CSV file. Rows accumulate in an in-memory
// buffer and are written out on the flush interval, so a slow disk
// never blocks message delivery. Losing up to one interval of rows on
// a crash is the accepted trade.
type Sink struct {
	cfg        Config
	subscriber Subscriber
	logger     *slog.Logger
	core       *metric.Metrics

	fileMu sync.Mutex
	file   *os.File

	bufferMu sync.Mutex
	buffer   []string
	rows     uint64

	mu        sync.Mutex
	started   bool
	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSink creates a CSV sink fed by subscriber.
func NewSink(cfg Config, subscriber Subscriber, deps *component.Dependencies) (*Sink, error) {
	if subscriber == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Sink", "NewSink", "nil subscriber")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Sink", "NewSink", "validate config")
	}

	return &Sink{
		cfg:        cfg,
		subscriber: subscriber,
		logger:     deps.GetLoggerWithComponent("csv-logger"),
		core:       deps.CoreMetrics(),
		shutdown:   make(chan struct{}),
	}, nil
}

// Name implements component.LifecycleComponent.
func (s *Sink) Name() string { return "csv-logger" }

// Initialize opens the log file and writes the header. An unwritable
// file is fatal: a logger that cannot log has no reason to start.
func (s *Sink) Initialize() error {
	if dir := filepath.Dir(s.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapFatal(err, "Sink", "Initialize", "create output directory")
		}
	}

	file, err := os.OpenFile(s.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WrapFatal(err, "Sink", "Initialize", "open output file")
	}

	if _, err := file.WriteString(Header + "\n"); err != nil {
		file.Close()
		return errors.WrapFatal(err, "Sink", "Initialize", "write header")
	}

	s.fileMu.Lock()
	s.file = file
	s.fileMu.Unlock()

	s.logger.Info("csv header written", "path", s.cfg.Path)
	return nil
}

// Start subscribes to the readings subject and launches the flush loop.
func (s *Sink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Start", "already started")
	}
	s.started = true

	err := s.subscriber.Subscribe(ctx, s.cfg.Subject, func(_ context.Context, data []byte) {
		s.handlePayload(data)
	})
	if err != nil {
		return errors.WrapTransient(err, "Sink", "Start", "subscribe to readings")
	}

	s.wg.Add(1)
	go s.flushLoop()

	s.logger.Info("logging readings",
		"subject", s.cfg.Subject, "path", s.cfg.Path, "flush_interval", s.cfg.FlushInterval)
	return nil
}

// Stop flushes remaining rows and closes the file.
func (s *Sink) Stop(timeout time.Duration) error {
	s.closeOnce.Do(func() { close(s.shutdown) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("flush loop still running after %v", timeout),
			"Sink", "Stop", "wait for flush loop")
	}

	s.flush()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return errors.WrapTransient(err, "Sink", "Stop", "close output file")
		}
		s.file = nil
	}

	s.logger.Info("csv logger stopped", "total_rows", s.Rows())
	return nil
}

// Rows returns the number of rows accepted so far.
func (s *Sink) Rows() uint64 {
	s.bufferMu.Lock()
	defer s.bufferMu.Unlock()
	return s.rows
}

// handlePayload decodes one delivery and buffers its row. Malformed
// payloads are logged and skipped; the stream continues.
func (s *Sink) handlePayload(data []byte) {
	reading, err := telemetry.Decode(data)
	if err != nil {
		s.logger.Warn("skipping malformed payload", "error", err)
		if s.core != nil {
			s.core.RecordError("csv-logger", "decode")
		}
		return
	}

	row := fmt.Sprintf("%d,%d,%.2f,%d,%s",
		reading.GeneratedAt,
		reading.SourceID,
		reading.Value,
		reading.Sequence,
		time.Now().Format(receivedAtLayout),
	)

	s.bufferMu.Lock()
	s.buffer = append(s.buffer, row)
	s.rows++
	total := s.rows
	s.bufferMu.Unlock()

	if s.core != nil {
		s.core.RecordSinkRow()
	}
	if total%progressEvery == 0 {
		s.logger.Info("logged readings", "total", total)
	}
}

// flushLoop writes buffered rows to disk on the flush interval.
func (s *Sink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.flush()
		}
	}
}

// flush swaps the buffer out under its lock, then writes under the file
// lock so message handling is never blocked by disk latency.
func (s *Sink) flush() {
	s.bufferMu.Lock()
	if len(s.buffer) == 0 {
		s.bufferMu.Unlock()
		return
	}
	pending := s.buffer
	s.buffer = nil
	s.bufferMu.Unlock()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if s.file == nil {
		return
	}

	if _, err := s.file.WriteString(strings.Join(pending, "\n") + "\n"); err != nil {
		// Best effort mid-stream: the rows are lost but the sink keeps
		// accepting new ones.
		s.logger.Error("flush failed", "rows", len(pending), "error", err)
		if s.core != nil {
			s.core.RecordSinkError()
		}
		return
	}

	if err := s.file.Sync(); err != nil {
		s.logger.Warn("fsync failed", "error", err)
	}

	if s.core != nil {
		s.core.RecordSinkFlush()
	}
}
