package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/amterp/tally/internal/metrics"
	"github.com/amterp/tally/internal/service"
)

const shutdownTimeout = 5 * time.Second

// ServerConfig holds everything a Server needs.
type ServerConfig struct {
	Counters *service.CounterService
	Metrics  *metrics.Metrics // nil disables /metrics
	Logger   *log.Logger
	Port     int
	DataDir  string // empty disables file watching
}

// Server serves the counter API, pushes changes over WebSocket and reloads
// counters.json when another process rewrites it.
type Server struct {
	httpServer *http.Server
	counters   *service.CounterService
	watcher    *FileWatcher
	wsHub      *WebSocketHub
	logger     *log.Logger
}

// NewServer creates a new server. Nothing listens until Run.
func NewServer(cfg ServerConfig) *Server {
	mux := http.NewServeMux()
	NewHandler(cfg.Counters, cfg.Logger).RegisterRoutes(mux)

	wsHub := NewWebSocketHub(cfg.Logger)
	mux.HandleFunc("GET /api/v1/ws", wsHub.ServeWS(cfg.Counters.GetAll))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	var watcher *FileWatcher
	if cfg.DataDir != "" {
		var err error
		watcher, err = NewFileWatcher(cfg.DataDir, cfg.Logger)
		if err != nil {
			cfg.Logger.Warn("Failed to create file watcher", "err", err)
		} else {
			watcher.Subscribe(&reloadOnChange{counters: cfg.Counters})
		}
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      Logging(cfg.Logger, cfg.Metrics, Cors(mux)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		counters: cfg.Counters,
		watcher:  watcher,
		wsHub:    wsHub,
		logger:   cfg.Logger,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
// gracefully. Returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.logger.Warn("Failed to start file watcher", "err", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.broadcastChanges(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Warn("Failed to stop file watcher", "err", err)
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// broadcastChanges pushes the counter list to WebSocket clients after
// every change until ctx is done.
func (s *Server) broadcastChanges(ctx context.Context) {
	changes, unsubscribe := s.counters.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			s.wsHub.BroadcastCounters(s.counters.GetAll())
		}
	}
}

// reloadOnChange re-reads counters.json when another process writes it.
type reloadOnChange struct {
	counters *service.CounterService
}

func (r *reloadOnChange) OnFileChange(change FileChange) {
	if change.Type == FileChangeDeleted {
		return // Keep the in-memory list; the next save recreates the file
	}
	r.counters.ReloadIfChanged()
}
