// Package api serves the crawl-time operations endpoint: liveness, prometheus
// metrics, and the latest run summary. It is an operator surface, not part of
// the engine's library boundary.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Server exposes /healthz, /metrics, and /summary while a crawl runs.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger

	mu      sync.RWMutex
	summary *registry.Summary
}

// New builds a Server listening on port.
func New(port int, logger *zap.Logger) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/summary", s.handleSummary)
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves in a goroutine until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server failed", zap.Error(err))
		}
	}()
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown ops server: %w", err)
	}
	return nil
}

// SetSummary publishes the finished run's summary to /summary.
func (s *Server) SetSummary(sum registry.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &sum
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	sum := s.summary
	s.mu.RUnlock()
	if sum == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sum); err != nil {
		s.logger.Warn("encode summary failed", zap.Error(err))
	}
}
