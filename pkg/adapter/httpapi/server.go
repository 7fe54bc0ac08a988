// Package httpapi exposes the file-manager service over HTTP.
//
// The adapter owns the gin router, the middleware chain (recovery, request
// logging, CORS, bearer-token authentication) and the mapping from service
// errors to HTTP status codes. It holds no business logic; every operation
// is delegated to the browser service.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/internal/ratelimiter"
	"github.com/bucketfm/bucketfm/pkg/audit"
	"github.com/bucketfm/bucketfm/pkg/browser"
	"github.com/bucketfm/bucketfm/pkg/config"
)

// AuditQuerier is implemented by audit sinks that support range queries.
// The console sink does not; the badger sink does.
type AuditQuerier interface {
	Query(ctx context.Context, from, to time.Time) ([]audit.Event, error)
}

// Server is the HTTP protocol adapter.
type Server struct {
	cfg      config.ServerConfig
	auth     config.AuthConfig
	svc      *browser.Service
	sink     audit.Sink
	logger   *zap.Logger
	registry *prometheus.Registry

	router *gin.Engine
	http   *http.Server
}

// New builds the server and its route table.
func New(cfg config.ServerConfig, auth config.AuthConfig, svc *browser.Service, sink audit.Sink, registry *prometheus.Registry, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		auth:     auth,
		svc:      svc,
		sink:     sink,
		logger:   logger,
		registry: registry,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware(cfg.CORSOrigins))
	if cfg.RateLimitRPS > 0 {
		router.Use(rateLimitMiddleware(ratelimiter.New(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}
	router.MaxMultipartMemory = 32 << 20

	router.GET("/healthz", s.handleHealth)

	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.Use(authMiddleware(auth, logger))
	{
		files := api.Group("/files")
		files.POST("/operations", s.handleOperations)
		files.POST("/upload", s.handleUpload)
		files.GET("/download", s.handleDownload)
		files.POST("/download", s.handleDownload)

		// The audit trail is a security record; only admins may read it.
		api.GET("/audit", adminOnly(auth), s.handleAuditQuery)
	}

	s.router = router
	s.http = &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts the HTTP server and blocks until the context is cancelled
// or an unrecoverable error occurs. On cancellation it shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Listen))

		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server", zap.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return ctx.Err()
}
