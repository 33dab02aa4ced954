package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// FeedConfig configures the WebSocket snapshot feed.
type FeedConfig struct {
	Port     int           // listen port, default 8081
	Path     string        // endpoint path, default /ws
	Interval time.Duration // broadcast cadence, default 2s
}

// snapshotFrame is what the feed sends to each connected client.
type snapshotFrame struct {
	Timestamp int64           `json:"timestamp"`
	Sensors   []SourceSummary `json:"sensors"`
}

// Feed broadcasts tracker snapshots to WebSocket clients so external
// dashboards can watch the stream without scraping the console.
type Feed struct {
	cfg     FeedConfig
	tracker *Tracker
	logger  *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	server  *http.Server
	started bool
	done    chan struct{}
}

// NewFeed creates a snapshot feed for tracker.
func NewFeed(cfg FeedConfig, tracker *Tracker, logger *slog.Logger) (*Feed, error) {
	if tracker == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Feed", "NewFeed", "nil tracker")
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Feed{
		cfg:     cfg,
		tracker: tracker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Snapshot data is not sensitive and the feed is deployed on
			// trusted networks
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Name implements component.LifecycleComponent.
func (f *Feed) Name() string { return "feed" }

// Initialize implements component.LifecycleComponent.
func (f *Feed) Initialize() error { return nil }

// Start launches the HTTP server and the broadcast loop.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Feed", "Start", "already started")
	}
	f.started = true

	mux := http.NewServeMux()
	mux.HandleFunc(f.cfg.Path, f.handleClient)
	f.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", f.cfg.Port),
		Handler: mux,
	}
	server := f.server
	f.mu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Error("feed server failed", "error", err)
		}
	}()

	go f.broadcastLoop(ctx)

	f.logger.Info("snapshot feed listening",
		"addr", server.Addr, "path", f.cfg.Path, "interval", f.cfg.Interval)
	return nil
}

// Stop shuts the server down and disconnects all clients.
func (f *Feed) Stop(timeout time.Duration) error {
	select {
	case <-f.done:
	case <-time.After(timeout):
	}

	f.mu.Lock()
	server := f.server
	for conn := range f.clients {
		_ = conn.Close()
	}
	f.clients = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Feed", "Stop", "shutdown server")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// handleClient upgrades the connection and registers the client. The
// broadcast loop pushes frames; the read loop only drains control
// messages and detects disconnects.
func (f *Feed) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	count := len(f.clients)
	f.mu.Unlock()

	f.logger.Info("feed client connected", "remote", conn.RemoteAddr(), "clients", count)

	go func() {
		defer f.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *Feed) removeClient(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	_ = conn.Close()
}

// broadcastLoop sends the current snapshot to every client each tick.
func (f *Feed) broadcastLoop(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.broadcast()
		}
	}
}

func (f *Feed) broadcast() {
	snapshot := f.tracker.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	frame, err := json.Marshal(snapshotFrame{
		Timestamp: time.Now().UnixMilli(),
		Sensors:   snapshot,
	})
	if err != nil {
		f.logger.Error("marshal snapshot failed", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // deadline on live conn
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			f.logger.Warn("feed write failed, dropping client",
				"remote", conn.RemoteAddr(), "error", err)
			delete(f.clients, conn)
			_ = conn.Close()
		}
	}
}
