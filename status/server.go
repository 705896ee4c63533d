package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server exposes health, stats and Prometheus metrics over HTTP for local
// monitoring of the capture pipeline.
type Server struct {
	server    *http.Server
	handler   http.Handler
	logger    *slog.Logger
	engine    EngineStatus
	metrics   *Metrics
	startTime time.Time
}

type Config struct {
	Address string
	Port    int
	Engine  EngineStatus
	Logger  *slog.Logger
}

func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	if cfg.Port <= 0 {
		return nil, fmt.Errorf("port is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		logger:    log,
		engine:    cfg.Engine,
		metrics:   NewMetrics(cfg.Engine),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)
	s.handler = mux

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.withMetrics("/healthz", s.handleHealth))
	mux.HandleFunc("/stats", s.withMetrics("/stats", s.handleStats))
	mux.Handle("/metrics", s.metrics.Handler())
}

// withMetrics wraps a handler with request counting and timing.
func (s *Server) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		s.metrics.RecordHTTPRequest(r.Method, endpoint,
			fmt.Sprintf("%d", ww.statusCode), time.Since(startTime).Seconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start serves in the background; failures after startup are logged.
func (s *Server) Start() error {
	s.logger.Info("starting status server", "address", s.server.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping status server")

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	health := map[string]interface{}{
		"status":            "healthy",
		"timestamp":         time.Now().UTC(),
		"uptime":            time.Since(s.startTime).String(),
		"state":             s.engine.State().String(),
		"wake_word_enabled": s.engine.WakeWordEnabled(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	engineStats := s.engine.Stats()

	stats := map[string]interface{}{
		"uptime":    time.Since(s.startTime).String(),
		"timestamp": time.Now().UTC(),
		"engine": map[string]interface{}{
			"state":             engineStats.State.String(),
			"wake_word_enabled": s.engine.WakeWordEnabled(),
			"chunks_processed":  engineStats.ChunksProcessed,
			"wake_detections":   engineStats.WakeDetections,
			"commands_captured": engineStats.CommandsCaptured,
			"forced_finalizes":  engineStats.ForcedFinalizes,
			"chunk_errors":      engineStats.ChunkErrors,
			"source_errors":     engineStats.SourceErrors,
			"dropped_events":    engineStats.DroppedEvents,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
