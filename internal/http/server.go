package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/wishcraft/gatekeeper/internal/config"
	"github.com/wishcraft/gatekeeper/internal/csrf"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	"github.com/wishcraft/gatekeeper/internal/ratelimit"
	registryHTTP "github.com/wishcraft/gatekeeper/internal/registry/http"
	sessionHTTP "github.com/wishcraft/gatekeeper/internal/session/http"
	sessionService "github.com/wishcraft/gatekeeper/internal/session/service"
	webhookHTTP "github.com/wishcraft/gatekeeper/internal/webhook/http"
	webhookService "github.com/wishcraft/gatekeeper/internal/webhook/service"
)

// RouterConfig carries everything the router assembly needs.
type RouterConfig struct {
	Config          *config.Config
	Logger          *slog.Logger
	Sealer          sessionService.Sealer
	CSRFIssuer      *csrf.Issuer
	Limiter         ratelimit.Limiter
	SecurityMetrics metrics.SecurityMetrics
	MeterProvider   otelmetric.MeterProvider
	WebhookVerifier webhookService.Verifier
	SessionHandler  *sessionHTTP.Handler
	RegistryHandler *registryHTTP.Handler
	WebhookHandler  *webhookHTTP.Handler
}

// NewRouter assembles the gin engine with all middleware and routes.
//
// Three route families, three protection profiles:
//   - /v1/sessions: auth-class rate limit; login issues the first CSRF token
//     so the create route itself is exempt from CSRF.
//   - /v1/registries: api-class rate limit, session required, CSRF enforced
//     on mutations.
//   - /webhooks: HMAC verification first, then webhook-class rate limit
//     keyed by shop domain; unverified deliveries never touch a shop's
//     window. No cookies, no CSRF.
func NewRouter(rc RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(requestid.New())
	engine.Use(RecoveryMiddleware(rc.Logger))
	engine.Use(RequestLoggerMiddleware(rc.Logger))

	if rc.MeterProvider != nil {
		engine.Use(metrics.HTTPMetricsMiddleware(rc.MeterProvider, rc.Config.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(
		rc.Config.CORSEnabled, rc.Config.CORSAllowOrigins, rc.Logger,
	); corsMiddleware != nil {
		engine.Use(corsMiddleware)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	engine.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	sessionMiddleware := sessionHTTP.SessionMiddleware(
		rc.Sealer, rc.Config.SessionCookieName, rc.Config.SessionCookieSecure,
		rc.SecurityMetrics, rc.Logger,
	)
	csrfMiddleware := CSRFMiddleware(rc.CSRFIssuer, rc.Logger)

	sessions := engine.Group("/v1/sessions")
	sessions.Use(RateLimitMiddleware(
		rc.Limiter, ratelimit.ClassAuth, KeyByClientIP, rc.SecurityMetrics, rc.Logger,
	))
	sessions.Use(sessionMiddleware)
	sessions.POST("", rc.SessionHandler.Create)
	sessions.GET("/current",
		sessionHTTP.RequireSessionMiddleware(rc.Logger), rc.SessionHandler.Show)
	sessions.DELETE("/current", csrfMiddleware, rc.SessionHandler.Destroy)

	registries := engine.Group("/v1/registries")
	registries.Use(RateLimitMiddleware(
		rc.Limiter, ratelimit.ClassAPI, KeyByClientIP, rc.SecurityMetrics, rc.Logger,
	))
	registries.Use(sessionMiddleware)
	registries.Use(csrfMiddleware)
	registries.Use(sessionHTTP.RequireSessionMiddleware(rc.Logger))
	registries.POST("", rc.RegistryHandler.Create)
	registries.GET("", rc.RegistryHandler.List)
	registries.GET("/:id", rc.RegistryHandler.Get)

	webhooks := engine.Group("/webhooks")
	webhooks.Use(webhookHTTP.VerificationMiddleware(
		rc.WebhookVerifier, rc.SecurityMetrics, rc.Logger,
	))
	webhooks.Use(RateLimitMiddleware(
		rc.Limiter, ratelimit.ClassWebhook, KeyByShopDomain, rc.SecurityMetrics, rc.Logger,
	))
	webhooks.POST("/customers/data_request", rc.WebhookHandler.DataRequest)
	webhooks.POST("/customers/redact", rc.WebhookHandler.CustomersRedact)
	webhooks.POST("/shop/redact", rc.WebhookHandler.ShopRedact)

	return engine
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server for the given engine.
func NewServer(host string, port int, engine *gin.Engine, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
