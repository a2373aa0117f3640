// Package server provides the HTTP API for atsume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/atsume/internal/config"
	"github.com/hyperjump/atsume/internal/pipeline"
	"github.com/hyperjump/atsume/internal/storage"
)

// Server is the HTTP server for the atsume API.
type Server struct {
	pipeline  *pipeline.Pipeline
	store     storage.Store
	generator pipeline.QuestionGenerator // optional; nil disables generation
	config    *config.ServerConfig
	dbPath    string
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. generator may be
// nil, in which case the question-generation endpoint reports the capability
// as unavailable.
func NewServer(
	pipe *pipeline.Pipeline,
	store storage.Store,
	generator pipeline.QuestionGenerator,
	cfg *config.ServerConfig,
	dbPath string,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  pipe,
		store:     store,
		generator: generator,
		config:    cfg,
		dbPath:    dbPath,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Routes builds the router; exposed separately for handler tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleUpload)
	r.Get("/api/v1/documents", s.handleList)
	r.Delete("/api/v1/documents", s.handleClear)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/documents/{id}/download", s.handleDownload)
	r.Get("/api/v1/documents/{id}/text", s.handleText)
	r.Post("/api/v1/documents/{id}/reprocess", s.handleReprocess)
	r.Post("/api/v1/documents/{id}/questions", s.handleGenerateQuestions)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
