// Package httpapi serves stored digests and on-demand runs over a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// ErrMissingDigestService is returned when the server is built without a digest service.
var ErrMissingDigestService = errors.New("httpapi: digest service is required")

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Renderer formats digests for the API.
type Renderer interface {
	Markdown(d *domain.Digest) string
	JSON(d *domain.Digest) ([]byte, error)
}

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AllowedOrigins are the CORS origins. Empty allows none cross-origin.
	AllowedOrigins []string

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Server is the REST driving adapter.
type Server struct {
	digests  driving.DigestService
	renderer Renderer
	cfg      Config
	engine   *gin.Engine
}

// NewServer creates a server. The renderer is optional; without it
// markdown responses are unavailable.
func NewServer(digests driving.DigestService, renderer Renderer, cfg Config) (*Server, error) {
	if digests == nil {
		return nil, ErrMissingDigestService
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{digests: digests, renderer: renderer, cfg: cfg}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		}))
	}

	r.GET("/health", s.getHealth)

	api := r.Group("/api")
	api.GET("/framework", s.getFramework)
	api.GET("/sources", s.getSources)
	api.GET("/digests", s.listDigests)
	api.GET("/digests/:week", s.getDigest)
	api.POST("/digests", s.runDigest)
	api.GET("/themes/frequency", s.getThemeFrequency)
	api.GET("/themes/trends", s.getThemeTrends)

	if s.cfg.MCP != nil {
		r.Any("/mcp", gin.WrapH(s.cfg.MCP))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("httpapi: listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("httpapi: shutdown: %w", err)
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("httpapi: %s %s %d %s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
