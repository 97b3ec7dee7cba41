// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	auditRepository "github.com/wishcraft/gatekeeper/internal/audit/repository"
	auditService "github.com/wishcraft/gatekeeper/internal/audit/service"
	auditUsecase "github.com/wishcraft/gatekeeper/internal/audit/usecase"
	"github.com/wishcraft/gatekeeper/internal/config"
	"github.com/wishcraft/gatekeeper/internal/csrf"
	cryptoDomain "github.com/wishcraft/gatekeeper/internal/crypto/domain"
	cryptoService "github.com/wishcraft/gatekeeper/internal/crypto/service"
	"github.com/wishcraft/gatekeeper/internal/database"
	"github.com/wishcraft/gatekeeper/internal/http"
	"github.com/wishcraft/gatekeeper/internal/keyring"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	"github.com/wishcraft/gatekeeper/internal/ratelimit"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	registryHTTP "github.com/wishcraft/gatekeeper/internal/registry/http"
	registryRepository "github.com/wishcraft/gatekeeper/internal/registry/repository"
	registryUsecase "github.com/wishcraft/gatekeeper/internal/registry/usecase"
	sessionHTTP "github.com/wishcraft/gatekeeper/internal/session/http"
	sessionService "github.com/wishcraft/gatekeeper/internal/session/service"
	webhookHTTP "github.com/wishcraft/gatekeeper/internal/webhook/http"
	webhookService "github.com/wishcraft/gatekeeper/internal/webhook/service"
	webhookUsecase "github.com/wishcraft/gatekeeper/internal/webhook/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	keyring         *keyring.Keyring
	metricsProvider *metrics.Provider
	securityMetrics metrics.SecurityMetrics

	// Managers and security services
	txManager database.TxManager
	sealer    sessionService.Sealer
	verifier  webhookService.Verifier
	signer    auditService.RecordSigner
	issuer    *csrf.Issuer
	limiter   ratelimit.Limiter

	// Repositories
	registryRepo registryDomain.Repository
	auditRepo    auditDomain.Repository

	// Use Cases
	registryUseCase *registryUsecase.RegistryUsecase
	gdprUseCase     *webhookUsecase.GDPRUsecase
	auditUseCase    *auditUsecase.AuditUsecase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	keyringInit         sync.Once
	metricsProviderInit sync.Once
	securityMetricsInit sync.Once
	txManagerInit       sync.Once
	sealerInit          sync.Once
	verifierInit        sync.Once
	signerInit          sync.Once
	issuerInit          sync.Once
	limiterInit         sync.Once
	registryRepoInit    sync.Once
	auditRepoInit       sync.Once
	registryUseCaseInit sync.Once
	gdprUseCaseInit     sync.Once
	auditUseCaseInit    sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// Keyring returns the loaded key material.
func (c *Container) Keyring(ctx context.Context) (*keyring.Keyring, error) {
	c.keyringInit.Do(func() {
		kr, err := keyring.Load(ctx, keyring.Options{
			Production: c.config.IsProduction(),
			KMSKeyURI:  c.config.KeyringKMSKeyURI,
		}, c.Logger())
		if err != nil {
			c.initErrors["keyring"] = err
			return
		}
		c.keyring = kr
	})
	if storedErr, exists := c.initErrors["keyring"]; exists {
		return nil, storedErr
	}
	return c.keyring, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// SecurityMetrics returns the security metric instruments. A no-op
// implementation is used when metrics are disabled.
func (c *Container) SecurityMetrics() (metrics.SecurityMetrics, error) {
	c.securityMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["securityMetrics"] = err
			return
		}
		if provider == nil {
			c.securityMetrics = metrics.NewNoOpSecurityMetrics()
			return
		}

		sm, err := metrics.NewSecurityMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["securityMetrics"] = err
			return
		}
		c.securityMetrics = sm
	})
	if storedErr, exists := c.initErrors["securityMetrics"]; exists {
		return nil, storedErr
	}
	return c.securityMetrics, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Sealer returns the session sealer built from the loaded key material.
func (c *Container) Sealer(ctx context.Context) (sessionService.Sealer, error) {
	c.sealerInit.Do(func() {
		kr, err := c.Keyring(ctx)
		if err != nil {
			c.initErrors["sealer"] = fmt.Errorf("failed to get keyring for sealer: %w", err)
			return
		}

		sealer, err := sessionService.NewSealer(
			kr.SessionKey(),
			kr.SessionSalt(),
			cryptoDomain.Algorithm(c.config.SessionAlgorithm),
			cryptoService.NewAEADManager(),
		)
		if err != nil {
			c.initErrors["sealer"] = fmt.Errorf("failed to create session sealer: %w", err)
			return
		}
		c.sealer = sealer
	})
	if storedErr, exists := c.initErrors["sealer"]; exists {
		return nil, storedErr
	}
	return c.sealer, nil
}

// WebhookVerifier returns the webhook HMAC verifier.
func (c *Container) WebhookVerifier(ctx context.Context) (webhookService.Verifier, error) {
	c.verifierInit.Do(func() {
		kr, err := c.Keyring(ctx)
		if err != nil {
			c.initErrors["verifier"] = fmt.Errorf("failed to get keyring for verifier: %w", err)
			return
		}
		c.verifier = webhookService.NewVerifier(kr.SigningSecret())
	})
	if storedErr, exists := c.initErrors["verifier"]; exists {
		return nil, storedErr
	}
	return c.verifier, nil
}

// RecordSigner returns the audit record signer.
func (c *Container) RecordSigner(ctx context.Context) (auditService.RecordSigner, error) {
	c.signerInit.Do(func() {
		kr, err := c.Keyring(ctx)
		if err != nil {
			c.initErrors["signer"] = fmt.Errorf("failed to get keyring for record signer: %w", err)
			return
		}

		signer, err := auditService.NewRecordSigner(kr.SigningSecret())
		if err != nil {
			c.initErrors["signer"] = fmt.Errorf("failed to create record signer: %w", err)
			return
		}
		c.signer = signer
	})
	if storedErr, exists := c.initErrors["signer"]; exists {
		return nil, storedErr
	}
	return c.signer, nil
}

// CSRFIssuer returns the CSRF token issuer.
func (c *Container) CSRFIssuer() *csrf.Issuer {
	c.issuerInit.Do(func() {
		c.issuer = csrf.NewIssuer()
	})
	return c.issuer
}

// RateLimiter returns the fixed-window limiter, or nil when rate limiting is
// disabled.
func (c *Container) RateLimiter() ratelimit.Limiter {
	c.limiterInit.Do(func() {
		if !c.config.RateLimitEnabled {
			return
		}
		c.limiter = ratelimit.NewFixedWindowLimiter(map[ratelimit.Class]ratelimit.Limits{
			ratelimit.ClassAPI: {
				Window:  c.config.RateLimitAPI.Window,
				Ceiling: c.config.RateLimitAPI.Ceiling,
			},
			ratelimit.ClassAuth: {
				Window:  c.config.RateLimitAuth.Window,
				Ceiling: c.config.RateLimitAuth.Ceiling,
			},
			ratelimit.ClassWebhook: {
				Window:  c.config.RateLimitWebhook.Window,
				Ceiling: c.config.RateLimitWebhook.Ceiling,
			},
		}, c.config.RateLimitSweepInterval)
	})
	return c.limiter
}

// RegistryRepository returns the registry repository instance.
func (c *Container) RegistryRepository() (registryDomain.Repository, error) {
	c.registryRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["registryRepo"] = fmt.Errorf("failed to get database for registry repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.registryRepo = registryRepository.NewMySQLRegistryRepository(db)
		case "postgres":
			c.registryRepo = registryRepository.NewPostgreSQLRegistryRepository(db)
		default:
			c.initErrors["registryRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["registryRepo"]; exists {
		return nil, storedErr
	}
	return c.registryRepo, nil
}

// AuditRepository returns the audit record repository instance.
func (c *Container) AuditRepository() (auditDomain.Repository, error) {
	c.auditRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["auditRepo"] = fmt.Errorf("failed to get database for audit repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.auditRepo = auditRepository.NewMySQLAuditRepository(db)
		case "postgres":
			c.auditRepo = auditRepository.NewPostgreSQLAuditRepository(db)
		default:
			c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// RegistryUseCase returns the registry use case instance.
func (c *Container) RegistryUseCase() (*registryUsecase.RegistryUsecase, error) {
	c.registryUseCaseInit.Do(func() {
		repo, err := c.RegistryRepository()
		if err != nil {
			c.initErrors["registryUseCase"] = fmt.Errorf("failed to get registry repository for registry use case: %w", err)
			return
		}
		c.registryUseCase = registryUsecase.NewRegistryUsecase(repo, c.Logger())
	})
	if storedErr, exists := c.initErrors["registryUseCase"]; exists {
		return nil, storedErr
	}
	return c.registryUseCase, nil
}

// GDPRUseCase returns the privacy webhook use case instance.
func (c *Container) GDPRUseCase(ctx context.Context) (*webhookUsecase.GDPRUsecase, error) {
	c.gdprUseCaseInit.Do(func() {
		registryRepo, err := c.RegistryRepository()
		if err != nil {
			c.initErrors["gdprUseCase"] = fmt.Errorf("failed to get registry repository for gdpr use case: %w", err)
			return
		}

		auditRepo, err := c.AuditRepository()
		if err != nil {
			c.initErrors["gdprUseCase"] = fmt.Errorf("failed to get audit repository for gdpr use case: %w", err)
			return
		}

		signer, err := c.RecordSigner(ctx)
		if err != nil {
			c.initErrors["gdprUseCase"] = fmt.Errorf("failed to get record signer for gdpr use case: %w", err)
			return
		}

		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["gdprUseCase"] = fmt.Errorf("failed to get tx manager for gdpr use case: %w", err)
			return
		}

		c.gdprUseCase = webhookUsecase.NewGDPRUsecase(registryRepo, auditRepo, signer, txManager, c.Logger())
	})
	if storedErr, exists := c.initErrors["gdprUseCase"]; exists {
		return nil, storedErr
	}
	return c.gdprUseCase, nil
}

// AuditUseCase returns the audit record use case instance.
func (c *Container) AuditUseCase(ctx context.Context) (*auditUsecase.AuditUsecase, error) {
	c.auditUseCaseInit.Do(func() {
		repo, err := c.AuditRepository()
		if err != nil {
			c.initErrors["auditUseCase"] = fmt.Errorf("failed to get audit repository for audit use case: %w", err)
			return
		}

		signer, err := c.RecordSigner(ctx)
		if err != nil {
			c.initErrors["auditUseCase"] = fmt.Errorf("failed to get record signer for audit use case: %w", err)
			return
		}

		c.auditUseCase = auditUsecase.NewAuditUsecase(repo, signer, c.Logger())
	})
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// HTTPServer returns the HTTP server instance with the full route assembly.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.limiter != nil {
		c.limiter.Stop()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keyring != nil {
		c.keyring.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initHTTPServer assembles the router and creates the HTTP server.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	sealer, err := c.Sealer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sealer for http server: %w", err)
	}

	verifier, err := c.WebhookVerifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook verifier for http server: %w", err)
	}

	securityMetrics, err := c.SecurityMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get security metrics for http server: %w", err)
	}

	registryUseCase, err := c.RegistryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry use case for http server: %w", err)
	}

	gdprUseCase, err := c.GDPRUseCase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gdpr use case for http server: %w", err)
	}

	routerConfig := http.RouterConfig{
		Config:          c.config,
		Logger:          logger,
		Sealer:          sealer,
		CSRFIssuer:      c.CSRFIssuer(),
		Limiter:         c.RateLimiter(),
		SecurityMetrics: securityMetrics,
		WebhookVerifier: verifier,
		SessionHandler: sessionHTTP.NewHandler(sealer, c.CSRFIssuer(), sessionHTTP.HandlerConfig{
			CookieName:   c.config.SessionCookieName,
			CookieSecure: c.config.SessionCookieSecure,
			TTL:          c.config.SessionTTL,
		}, logger),
		RegistryHandler: registryHTTP.NewHandler(registryUseCase, logger),
		WebhookHandler:  webhookHTTP.NewHandler(gdprUseCase, securityMetrics, logger),
	}

	if provider, err := c.MetricsProvider(); err == nil && provider != nil {
		routerConfig.MeterProvider = provider.MeterProvider()
	}

	engine := http.NewRouter(routerConfig)

	return http.NewServer(c.config.ServerHost, c.config.ServerPort, engine, logger), nil
}
