// Package api provides the REST management surface for the responder.
// It exposes health, status, and counter endpoints plus a small
// embedded status page via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/herald/internal/config"
	"github.com/jroosing/herald/internal/mdns"
	"github.com/jroosing/herald/internal/stats"
)

// Server is the management REST API server.
//
// Security note: do not expose the API to untrusted networks without an
// API key.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the API server. The store may be nil when counter
// persistence is disabled.
func New(cfg *config.Config, logger *slog.Logger, id mdns.Identity, rec *stats.Recorder, store *stats.Store) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = stats.NewRecorder()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(logger))

	h := &handler{
		logger:    logger,
		id:        id,
		rec:       rec,
		store:     store,
		startTime: time.Now(),
	}
	registerRoutes(engine, h, cfg)
	mountUI(engine, logger)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
