// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// ErrMissingRequiredConfig is returned when a mandatory setting is empty.
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Security SecurityConfig
	Server   ServerConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name              string `required:"true"`
	Environment       string // development, staging, production
	Version           string
	LogLevel          string
	LogFormat         string // json, text
	Debug             bool
	StoreDriver       string // postgres, memory
	LowStockThreshold int
	AutoMigrate       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	// MigrationPath overrides the migrations embedded in the binary.
	MigrationPath string
	// SecretName names an AWS Secrets Manager secret holding the password.
	SecretName string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	TTL          time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	Enabled             bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	Concurrency         int
	Queues              map[string]int // queue name -> priority
	StrictPriority      bool
	RetryMax            int
	ShutdownTimeout     time.Duration
	HealthCheckInterval time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	ExportPrefix    string
	PresignExpiry   time.Duration

	// LocalExportDir stores exports on disk instead of S3 when set.
	LocalExportDir string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
}

// Load loads configuration from the environment, an optional .env file in
// development, and an optional file named by CONFIG_FILE.
func Load(logger *slog.Logger) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	env := v.GetString("APP_ENV")
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	env := v.GetString("APP_ENV")
	redisHost := v.GetString("REDIS_HOST")
	redisPort := v.GetString("REDIS_PORT")

	return &Config{
		App: AppConfig{
			Name:              v.GetString("APP_NAME"),
			Environment:       env,
			Version:           v.GetString("APP_VERSION"),
			LogLevel:          v.GetString("LOG_LEVEL"),
			LogFormat:         v.GetString("LOG_FORMAT"),
			Debug:             boolOr(v, "APP_DEBUG", env == "development"),
			StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
			AutoMigrate:       boolOr(v, "DB_AUTO_MIGRATE", env != "production"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetString("DB_PORT"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			Name:               v.GetString("DB_NAME"),
			SSLMode:            v.GetString("DB_SSL_MODE"),
			MaxConnections:     v.GetInt32("DB_MAX_CONNECTIONS"),
			MinConnections:     v.GetInt32("DB_MIN_CONNECTIONS"),
			MaxConnLifetime:    v.GetDuration("DB_CONNECTION_LIFETIME"),
			MaxConnIdleTime:    v.GetDuration("DB_IDLE_TIME"),
			HealthCheckPeriod:  v.GetDuration("DB_HEALTH_CHECK_PERIOD"),
			ConnectTimeout:     v.GetDuration("DB_CONNECT_TIMEOUT"),
			StatementCacheMode: v.GetString("DB_STATEMENT_CACHE_MODE"),
			EnableQueryLogging: boolOr(v, "DB_QUERY_LOGGING", env == "development"),
			MigrationPath:      v.GetString("DB_MIGRATION_PATH"),
			SecretName:         v.GetString("DB_SECRET_NAME"),
		},
		Redis: RedisConfig{
			Enabled:      v.GetBool("REDIS_ENABLED"),
			Host:         redisHost,
			Port:         redisPort,
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			PoolTimeout:  v.GetDuration("REDIS_POOL_TIMEOUT"),
			TTL:          v.GetDuration("REDIS_TTL"),
		},
		Asynq: AsynqConfig{
			Enabled:             v.GetBool("ASYNQ_ENABLED"),
			RedisAddr:           fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("ASYNQ_REDIS_DB"),
			Concurrency:         v.GetInt("ASYNQ_CONCURRENCY"),
			Queues:              parseQueues(v.GetString("ASYNQ_QUEUES")),
			StrictPriority:      v.GetBool("ASYNQ_STRICT_PRIORITY"),
			RetryMax:            v.GetInt("ASYNQ_RETRY_MAX"),
			ShutdownTimeout:     v.GetDuration("ASYNQ_SHUTDOWN_TIMEOUT"),
			HealthCheckInterval: v.GetDuration("ASYNQ_HEALTH_CHECK_INTERVAL"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			S3Bucket:        v.GetString("AWS_S3_BUCKET"),
			S3Endpoint:      v.GetString("AWS_S3_ENDPOINT"),
			UsePathStyle:    boolOr(v, "AWS_S3_PATH_STYLE", env == "development"),
			ExportPrefix:    v.GetString("AWS_S3_EXPORT_PREFIX"),
			PresignExpiry:   v.GetDuration("AWS_S3_PRESIGN_EXPIRY"),
			LocalExportDir:  v.GetString("EXPORT_LOCAL_DIR"),
		},
		Security: SecurityConfig{
			RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			RateLimitDuration: v.GetDuration("RATE_LIMIT_DURATION"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			TrustedProxies:    splitList(v.GetString("TRUSTED_PROXIES")),
			SecureHeaders:     boolOr(v, "SECURE_HEADERS", env == "production"),
			RequestIDHeader:   v.GetString("REQUEST_ID_HEADER"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("SERVER_REQUEST_TIMEOUT"),
			MaxHeaderBytes:  v.GetInt("SERVER_MAX_HEADER_BYTES"),
			GracefulTimeout: v.GetDuration("SERVER_GRACEFUL_TIMEOUT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"APP_ENV":             "development",
		"APP_NAME":            "stockledger-api",
		"APP_VERSION":         "dev",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
		"STORE_DRIVER":        StoreDriverPostgres,
		"LOW_STOCK_THRESHOLD": 5,

		"DB_HOST":                 "localhost",
		"DB_PORT":                 "5432",
		"DB_USER":                 "stockledger",
		"DB_PASSWORD":             "stockledger_dev",
		"DB_NAME":                 "stockledger",
		"DB_SSL_MODE":             "disable",
		"DB_MAX_CONNECTIONS":      25,
		"DB_MIN_CONNECTIONS":      5,
		"DB_CONNECTION_LIFETIME":  time.Hour,
		"DB_IDLE_TIME":            30 * time.Minute,
		"DB_HEALTH_CHECK_PERIOD":  time.Minute,
		"DB_CONNECT_TIMEOUT":      10 * time.Second,
		"DB_STATEMENT_CACHE_MODE": "describe",

		"REDIS_ENABLED":        true,
		"REDIS_HOST":           "localhost",
		"REDIS_PORT":           "6379",
		"REDIS_DB":             0,
		"REDIS_MAX_RETRIES":    3,
		"REDIS_DIAL_TIMEOUT":   5 * time.Second,
		"REDIS_READ_TIMEOUT":   3 * time.Second,
		"REDIS_WRITE_TIMEOUT":  3 * time.Second,
		"REDIS_POOL_SIZE":      10,
		"REDIS_MIN_IDLE_CONNS": 2,
		"REDIS_POOL_TIMEOUT":   4 * time.Second,
		"REDIS_TTL":            5 * time.Minute,

		"ASYNQ_ENABLED":               true,
		"ASYNQ_REDIS_DB":              0,
		"ASYNQ_CONCURRENCY":           10,
		"ASYNQ_QUEUES":                "critical:6,default:3,low:1",
		"ASYNQ_RETRY_MAX":             3,
		"ASYNQ_SHUTDOWN_TIMEOUT":      30 * time.Second,
		"ASYNQ_HEALTH_CHECK_INTERVAL": 30 * time.Second,

		"AWS_REGION":            "us-east-1",
		"AWS_S3_BUCKET":         "stockledger-exports",
		"AWS_S3_EXPORT_PREFIX":  "exports/movements",
		"AWS_S3_PRESIGN_EXPIRY": 24 * time.Hour,

		"RATE_LIMIT_REQUESTS": 100,
		"RATE_LIMIT_DURATION": time.Minute,
		"ALLOWED_ORIGINS":     "*",
		"REQUEST_ID_HEADER":   "X-Request-ID",

		"SERVER_HOST":             "0.0.0.0",
		"SERVER_PORT":             "8080",
		"SERVER_READ_TIMEOUT":     15 * time.Second,
		"SERVER_WRITE_TIMEOUT":    30 * time.Second,
		"SERVER_IDLE_TIMEOUT":     60 * time.Second,
		"SERVER_REQUEST_TIMEOUT":  20 * time.Second,
		"SERVER_MAX_HEADER_BYTES": 1 << 20,
		"SERVER_GRACEFUL_TIMEOUT": 30 * time.Second,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate runs the basic validator and, in production, the strict one.
func (c *Config) Validate() error {
	if err := (&BasicValidator{}).Validate(c); err != nil {
		return err
	}
	if c.IsProduction() {
		return (&ProductionValidator{}).Validate(c)
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port of the Redis server
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// UsesMemoryStore reports whether the in-process store is selected.
func (c *Config) UsesMemoryStore() bool {
	return c.App.StoreDriver == StoreDriverMemory
}

func boolOr(v *viper.Viper, key string, fallback bool) bool {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		return fallback
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" && priority > 0 {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
