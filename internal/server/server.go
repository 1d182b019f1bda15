// Package server exposes the consultation engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/tcmdx/internal/consult"
	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/metrics"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/store"
)

// Options configures a Server. Consult, Diagnosis and Table are required.
type Options struct {
	Consult   *consult.Service
	Diagnosis *diagnosis.Service
	Table     *rules.Table
	// Contexts enables DELETE /api/conversations/:user_id. May be nil.
	Contexts store.ContextRepo
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// TurnTimeout bounds one consultation turn; 0 means no limit.
	TurnTimeout time.Duration
}

// Server is the HTTP surface.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger *zap.Logger
}

// New builds the server and its routes.
func New(opts Options) *Server {
	registerValidators()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{opts: opts, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog(logger))

	api := router.Group("/api")
	{
		api.POST("/tcm_process", s.handleProcess)
		api.POST("/diagnose", s.handleDiagnose)
		api.GET("/rules", s.handleRules)
		api.GET("/health", s.handleHealth)
		api.DELETE("/conversations/:user_id", s.handleReset)
	}
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	s.engine = router
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// accessLog logs one line per request.
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
