// Package server exposes accounts, analysis and history over a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verisense/internal/auth"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Analyzer runs credibility analyses
type Analyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) (*model.AnalysisResult, error)
	Models() map[string]string
	FactCheckEnabled() bool
}

// Server wires the HTTP routes to the analysis pipeline, accounts and history
type Server struct {
	cfg          model.ServerConfig
	analyzer     Analyzer
	auth         *auth.Service
	store        store.Store
	historyLimit int
	engine       *gin.Engine
}

// New builds the router. historyLimit caps list queries without an explicit limit.
func New(cfg model.ServerConfig, analyzer Analyzer, authSvc *auth.Service, st store.Store, historyLimit int) *Server {
	defaults := model.DefaultConfig().Server
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = defaults.AnalysisTimeout
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = defaults.MaxRequestBytes
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:          cfg,
		analyzer:     analyzer,
		auth:         authSvc,
		store:        st,
		historyLimit: historyLimit,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))
	r.Use(bodyLimit(s.cfg.MaxRequestBytes))

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", s.register)
		v1.POST("/auth/login", s.login)
		v1.POST("/auth/verify", s.verify)

		secured := v1.Group("")
		secured.Use(requireAuth(s.auth))
		secured.GET("/me", s.me)
		secured.POST("/analyze", s.analyze)
		secured.GET("/history", s.listHistory)
		secured.GET("/history/:id", s.getHistory)
		secured.DELETE("/history/:id", s.deleteHistory)
	}
	return r
}

// corsConfig allows every origin, without credentials, when none are listed or "*" is
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Server] Listening", "addr", addr, "store", s.store.Backend())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		slog.Info("[Server] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	storeStatus := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		slog.Warn("[Server] Store ping failed", "error", err)
		status = http.StatusServiceUnavailable
		storeStatus = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":             storeStatus,
		"store":              s.store.Backend(),
		"fact_check_enabled": s.analyzer.FactCheckEnabled(),
		"models":             s.analyzer.Models(),
	})
}
