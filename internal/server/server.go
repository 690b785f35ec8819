// Package server is the JSON + WebSocket API the bankdesk UI talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/server/handler"
	"github.com/alanyoungcy/bankdesk/internal/server/middleware"
	"github.com/alanyoungcy/bankdesk/internal/server/ws"
)

// Config holds the HTTP server configuration. RateLimit of zero, or a nil
// limiter, disables rate limiting.
type Config struct {
	Port        int
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Catalogue *handler.CatalogueHandler
	Market    *handler.MarketHandler
	Auth      *handler.AuthHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and wrapped in the middleware chain. wsHub and limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Catalogue.
	mux.HandleFunc("GET /api/currencies", handlers.Catalogue.ListCurrencies)
	mux.HandleFunc("GET /api/assets/catalogue", handlers.Catalogue.ListAssets)

	// Market data.
	mux.HandleFunc("GET /api/market/prices", handlers.Market.GetPrices)
	mux.HandleFunc("GET /api/market/chart/{id}", handlers.Market.GetChart)
	mux.HandleFunc("GET /api/assets", handlers.Market.GetUserAssets)

	// Two-factor verification.
	mux.HandleFunc("POST /api/auth/2fa/verify", handlers.Auth.Verify)
	mux.HandleFunc("POST /api/auth/2fa/resend", handlers.Auth.Resend)
	mux.HandleFunc("POST /api/auth/2fa/validate-phone", handlers.Auth.ValidatePhone)
	mux.HandleFunc("POST /api/auth/2fa/send-test-code", handlers.Auth.SendTestCode)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.RequestID()(h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		handler:    h,
		logger:     logger,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
