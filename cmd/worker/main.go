// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/adapters/queue"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/internal/workers"
)

// cleanupSchedule is the cron spec of the stale alert sweep.
const cleanupSchedule = "@every 15m"

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	if err := run(cfg, slogger); err != nil {
		slogger.Error("worker failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("worker shutdown complete")
}

func run(cfg *config.Config, slogger *slog.Logger) error {
	if cfg.UsesMemoryStore() {
		return errors.New("the worker needs a shared store, set STORE_DRIVER=postgres")
	}

	ctx := context.Background()

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	manager := redis_a.NewCacheManager(redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger), slogger)

	objects, err := initStorage(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize export storage: %w", err)
	}

	// Workers read through the same cache the API invalidates.
	catalog := services.NewCatalogService(db.NewCatalogRepository(database, slogger), manager, slogger)
	ledger := services.NewStockLedger(db.NewStockStore(database, slogger), slogger, services.WithVariantCache(manager))
	exporter := services.NewMovementExporter(ledger, catalog, slogger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:         cfg.Asynq.Concurrency,
		Queues:              cfg.Asynq.Queues,
		StrictPriority:      cfg.Asynq.StrictPriority,
		ErrorHandler:        asynq.ErrorHandlerFunc(handleError(slogger)),
		RetryDelayFunc:      exponentialBackoff,
		ShutdownTimeout:     cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc:     healthCheck(slogger),
		HealthCheckInterval: cfg.Asynq.HealthCheckInterval,
		Logger:              newAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeLowStockAlert,
		workers.NewLowStockProcessor(manager, catalog, slogger).ProcessLowStockAlert)
	mux.HandleFunc(queue.TypeMovementExport,
		workers.NewExportProcessor(exporter, objects, manager, cfg.AWS.ExportPrefix, cfg.AWS.PresignExpiry, slogger).ProcessMovementExport)
	mux.HandleFunc(queue.TypeCleanupStaleAlert,
		workers.NewCleanupProcessor(manager, catalog, cfg.App.LowStockThreshold, slogger).CleanupStaleAlerts)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   newAsynqLogger(slogger),
		Location: time.UTC,
	})
	entryID, err := scheduler.Register(cleanupSchedule, queue.NewCleanupTask())
	if err != nil {
		return fmt.Errorf("failed to register cleanup schedule: %w", err)
	}
	slogger.Info("registered periodic task",
		slog.String("entry_id", entryID),
		slog.String("type", queue.TypeCleanupStaleAlert),
		slog.String("schedule", cleanupSchedule))

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	if cfg.Database.SecretName != "" {
		sm, err := config.NewSecretsManager(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := config.ResolveDatabasePassword(ctx, cfg, sm); err != nil {
			return nil, err
		}
	}

	return db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
}

func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ObjectStorage, error) {
	if cfg.AWS.LocalExportDir != "" {
		logger.Info("storing exports on disk", slog.String("dir", cfg.AWS.LocalExportDir))
		return storage.NewLocalStorage(cfg.AWS.LocalExportDir, logger)
	}

	logger.Info("storing exports in S3",
		slog.String("bucket", cfg.AWS.S3Bucket),
		slog.String("region", cfg.AWS.Region))
	return storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
}

func handleError(logger *slog.Logger) func(ctx context.Context, task *asynq.Task, err error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	}
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}

func healthCheck(logger *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			logger.Error("worker health check failed", slog.String("error", err.Error()))
		}
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
