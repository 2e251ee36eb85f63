// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/adapters/queue"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	slogger.Info("starting stock ledger api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("store_driver", cfg.App.StoreDriver),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Bool("asynq", cfg.Asynq.Enabled),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}
		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database     ports.Database
	closers      []func()
	redisClient  *redis.Client
	asynqClient  *asynq.Client
	asynqInspect *asynq.Inspector
	handlers     handlers.Handlers
}

func (d *dependencies) cleanup() {
	// Release in reverse order of acquisition.
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var (
		stockStore  ports.StockStore
		catalogRepo ports.CatalogRepository
	)

	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore(logger)
		deps.database, stockStore, catalogRepo = store, store, store
	} else {
		database, err := connectPostgres(ctx, cfg, logger)
		if err != nil {
			deps.cleanup()
			return nil, err
		}
		deps.closers = append(deps.closers, database.Close)
		deps.database = database
		stockStore = db.NewStockStore(database, logger)
		catalogRepo = db.NewCatalogRepository(database, logger)
	}

	// Interface-typed so a disabled dependency stays a true nil.
	var (
		variantCache ports.VariantCache
		statuses     ports.ExportStatusStore
		alerts       ports.AlertStore
		tasks        ports.TaskEnqueuer
		cachePinger  handlers.Pinger
		inspector    handlers.QueueInspector
	)

	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))

		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddress(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			PoolTimeout:  cfg.Redis.PoolTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			deps.cleanup()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		deps.redisClient = client
		deps.closers = append(deps.closers, func() { client.Close() })

		cache := redis_a.NewCache(client, cfg.Redis.TTL, logger)
		manager := redis_a.NewCacheManager(cache, logger)
		variantCache, statuses, alerts, cachePinger = manager, manager, manager, cache
	}

	if cfg.Asynq.Enabled {
		logger.Info("initializing Asynq client", slog.String("address", cfg.Asynq.RedisAddr))

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		}
		deps.asynqClient = asynq.NewClient(redisOpt)
		deps.asynqInspect = asynq.NewInspector(redisOpt)
		deps.closers = append(deps.closers,
			func() { deps.asynqClient.Close() },
			func() { deps.asynqInspect.Close() },
		)

		tasks = queue.NewEnqueuer(deps.asynqClient, statuses, logger)
		inspector = deps.asynqInspect
	}

	var ledgerOpts []services.LedgerOption
	if variantCache != nil {
		ledgerOpts = append(ledgerOpts, services.WithVariantCache(variantCache))
	}
	if tasks != nil {
		ledgerOpts = append(ledgerOpts, services.WithLowStockAlerts(tasks, cfg.App.LowStockThreshold))
	}

	ledger := services.NewStockLedger(stockStore, logger, ledgerOpts...)
	catalog := services.NewCatalogService(catalogRepo, variantCache, logger)
	exporter := services.NewMovementExporter(ledger, catalog, logger)

	deps.handlers = handlers.Handlers{
		Catalog: handlers.NewCatalogHandler(catalog, logger),
		Stock:   handlers.NewStockHandler(ledger, logger),
		Export:  handlers.NewExportHandler(exporter, catalog, tasks, statuses, logger),
		Health:  handlers.NewHealthHandler(deps.database, cachePinger, inspector, cfg, logger),
	}
	if alerts != nil {
		deps.handlers.Alerts = handlers.NewAlertHandler(alerts, logger)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// connectPostgres opens the pool and brings the schema up to date, or
// verifies it when migrations are managed out of band.
func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	if cfg.Database.SecretName != "" {
		sm, err := config.NewSecretsManager(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets manager: %w", err)
		}
		if err := config.ResolveDatabasePassword(ctx, cfg, sm); err != nil {
			return nil, err
		}
	}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.App.AutoMigrate {
		err = runMigrations(ctx, cfg, logger)
	} else {
		sqlDB := stdlib.OpenDBFromPool(database.Pool())
		err = db.CheckSchema(ctx, sqlDB, "public", "schema_migrations")
		sqlDB.Close()
	}
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps.handlers)

	// First listed is outermost.
	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger, cfg.Server.RequestTimeout/2),
	}
	if cfg.Security.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)
		go limiter.Sweep(ctx, cfg.Security.RateLimitDuration)
		chain = append(chain, limiter.Middleware)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	chain = append(chain,
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.Compression,
	)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, chain...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
