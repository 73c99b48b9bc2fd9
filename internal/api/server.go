// Package api exposes the video retrieval system over HTTP: search, ingestion
// jobs, video management, and frame serving.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/di37/video-rag-bot/internal/analyzer"
	"github.com/di37/video-rag-bot/internal/indexer"
	"github.com/di37/video-rag-bot/internal/jobs"
	"github.com/di37/video-rag-bot/internal/metadata"
	"github.com/di37/video-rag-bot/internal/query"
)

// Server hosts the HTTP API.
type Server struct {
	query     *query.Engine
	coord     *jobs.Coordinator
	indexer   *indexer.Engine
	meta      *metadata.Store
	describer *analyzer.Describer
	logger    *slog.Logger
	startedAt time.Time

	httpServer *http.Server
}

// NewServer creates the API server. describer may be nil when no vision model
// is configured; the describe endpoint then answers 503.
func NewServer(port int, q *query.Engine, coord *jobs.Coordinator, idx *indexer.Engine, meta *metadata.Store, describer *analyzer.Describer, logger *slog.Logger) *Server {
	s := &Server{
		query:     q,
		coord:     coord,
		indexer:   idx,
		meta:      meta,
		describer: describer,
		logger:    logger,
		startedAt: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server shutting down")
	return s.httpServer.Shutdown(ctx)
}
