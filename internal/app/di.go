// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	auditService "github.com/allisson/gatekeeper/internal/audit/service"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/http"
	"github.com/allisson/gatekeeper/internal/metrics"
	outboxUseCase "github.com/allisson/gatekeeper/internal/outbox/usecase"
	userUseCase "github.com/allisson/gatekeeper/internal/user/usecase"
)

// keyResolveTimeout bounds KMS calls made while resolving signing keys.
const keyResolveTimeout = 30 * time.Second

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access,
// exactly once, and initialization errors are remembered.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redisClient     *redis.Client
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	kmsService      authService.KMSService

	txManager database.TxManager

	// Services
	jwtService      authService.JWTService
	passwordService authService.PasswordService
	auditSigner     auditService.AuditSigner

	// Repositories
	userRepository       userUseCase.UserRepository
	roleRepository       authUseCase.RoleRepository
	revocationRepository authUseCase.RevocationRepository
	auditLogRepository   auditUseCase.AuditLogRepository
	outboxRepository     outboxUseCase.OutboxEventRepository

	// Use cases
	auditRecorder     auditUseCase.Recorder
	auditLogUseCase   auditUseCase.AuditLogUseCase
	tokenUseCase      authUseCase.TokenUseCase
	permissionUseCase authUseCase.PermissionUseCase
	seedUseCase       authUseCase.SeedUseCase
	userUseCase       userUseCase.UseCase
	outboxUseCase     outboxUseCase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	redisInit             sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	kmsServiceInit        sync.Once
	txManagerInit         sync.Once
	jwtServiceInit        sync.Once
	passwordServiceInit   sync.Once
	auditSignerInit       sync.Once
	userRepositoryInit    sync.Once
	roleRepositoryInit    sync.Once
	revocationRepoInit    sync.Once
	auditLogRepoInit      sync.Once
	outboxRepositoryInit  sync.Once
	auditRecorderInit     sync.Once
	auditLogUseCaseInit   sync.Once
	tokenUseCaseInit      sync.Once
	permissionUseCaseInit sync.Once
	seedUseCaseInit       sync.Once
	userUseCaseInit       sync.Once
	outboxUseCaseInit     sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// initOnce runs fn the first time key is requested and returns the remembered error afterwards.
func (c *Container) initOnce(once *sync.Once, key string, fn func() error) error {
	once.Do(func() {
		if err := fn(); err != nil {
			c.mu.Lock()
			c.initErrors[key] = err
			c.mu.Unlock()
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[key]
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
	err := c.initOnce(&c.dbInit, "db", func() error {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
		return nil
	})
	return c.db, err
}

// RedisClient returns the Redis client, or nil when REDIS_URL is not configured.
func (c *Container) RedisClient() (*redis.Client, error) {
	err := c.initOnce(&c.redisInit, "redis", func() error {
		if c.config.RedisURL == "" {
			return nil
		}
		opts, err := redis.ParseURL(c.config.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		c.redisClient = redis.NewClient(opts)
		return nil
	})
	return c.redisClient, err
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	err := c.initOnce(&c.txManagerInit, "txManager", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		c.txManager = database.NewTxManager(db)
		return nil
	})
	return c.txManager, err
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	err := c.initOnce(&c.metricsProviderInit, "metricsProvider", func() error {
		if !c.config.MetricsEnabled {
			return nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		c.metricsProvider = provider
		return nil
	})
	return c.metricsProvider, err
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.initOnce(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		c.businessMetrics = businessMetrics
		return nil
	})
	return c.businessMetrics, err
}

// KMSService returns the KMS service used to unwrap signing keys.
func (c *Container) KMSService() authService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = authService.NewKMSService()
	})
	return c.kmsService
}

// resolveSigningKey decodes a signing key, decrypting it through KMS when KMS_KEY_URI is set.
func (c *Container) resolveSigningKey(name, value string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyResolveTimeout)
	defer cancel()
	return authService.ResolveSigningKey(ctx, c.KMSService(), c.config.KMSKeyURI, name, value)
}

// HTTPServer returns the API server with every route mounted.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.initOnce(&c.httpServerInit, "httpServer", func() error {
		server, err := c.initHTTPServer(ctx)
		if err != nil {
			return err
		}
		c.httpServer = server
		return nil
	})
	return c.httpServer, err
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.initOnce(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			return nil
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		return nil
	})
	return c.metricsServer, err
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
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

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
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

// initHTTPServer creates the API server and registers readiness checks.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	deps, err := c.routerDeps()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())

	redisClient, err := c.RedisClient()
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		server.AddReadinessCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	server.SetupRouter(ctx, c.config, deps)
	return server, nil
}

func (c *Container) routerDeps() (http.RouterDeps, error) {
	authHandler, err := c.AuthHandler()
	if err != nil {
		return http.RouterDeps{}, err
	}
	userHandler, err := c.UserHandler()
	if err != nil {
		return http.RouterDeps{}, err
	}
	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return http.RouterDeps{}, err
	}
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return http.RouterDeps{}, err
	}
	permissionMiddleware, err := c.PermissionMiddleware()
	if err != nil {
		return http.RouterDeps{}, err
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return http.RouterDeps{}, err
	}

	return http.RouterDeps{
		AuthHandler:          authHandler,
		UserHandler:          userHandler,
		AuditLogHandler:      auditLogHandler,
		TokenUseCase:         tokenUseCase,
		PermissionMiddleware: permissionMiddleware,
		MetricsProvider:      provider,
	}, nil
}
