package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/roster/pkg/kvstore"
	"github.com/platinummonkey/roster/pkg/observability"
	"github.com/platinummonkey/roster/pkg/repository"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration
	Store kvstore.Config

	// Membership engine configuration
	Membership MembershipConfig

	// Audit log configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// MembershipConfig holds integrity engine settings
type MembershipConfig struct {
	KeyPrefix          string
	VerifyInvariants   bool
	DefaultChannelName string

	// SeedFile is a YAML snapshot imported at startup when set
	SeedFile string
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	Enabled   bool
	MaxEvents int

	// FilePath adds a JSON-lines file sink when set
	FilePath    string
	MaxFileSize int64

	RetentionDays   int
	CleanupSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Membership:    loadMembershipConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ROSTER_HOST", "0.0.0.0"),
		Port:            getEnv("ROSTER_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ROSTER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ROSTER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ROSTER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ROSTER_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("ROSTER_HEALTH_PORT", "9090"),
	}
}

// loadStoreConfig loads key-value store configuration from environment
func loadStoreConfig() kvstore.Config {
	cfg := kvstore.DefaultConfig()

	if storeType := getEnv("ROSTER_STORE_TYPE", ""); storeType != "" {
		cfg.Type = strings.ToLower(storeType)
	}

	// Filesystem config
	cfg.FilesystemRoot = getEnv("ROSTER_FILESYSTEM_ROOT", cfg.FilesystemRoot)

	// Redis config
	cfg.RedisURL = getEnv("ROSTER_REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("ROSTER_REDIS_PASSWORD", cfg.RedisPassword)
	if redisDB := getEnvInt("ROSTER_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if maxRetries := getEnvInt("ROSTER_REDIS_MAX_RETRIES", 0); maxRetries > 0 {
		cfg.RedisMaxRetries = maxRetries
	}
	if poolSize := getEnvInt("ROSTER_REDIS_POOL_SIZE", 0); poolSize > 0 {
		cfg.RedisPoolSize = poolSize
	}

	// SQL config
	cfg.SQLiteDSN = getEnv("ROSTER_SQLITE_DSN", cfg.SQLiteDSN)
	cfg.PostgresURL = getEnv("ROSTER_POSTGRES_URL", cfg.PostgresURL)
	if maxConns := getEnvInt("ROSTER_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	cfg.SQLTable = getEnv("ROSTER_SQL_TABLE", cfg.SQLTable)

	// S3 config
	cfg.S3Endpoint = getEnv("ROSTER_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = getEnv("ROSTER_S3_REGION", cfg.S3Region)
	cfg.S3Bucket = getEnv("ROSTER_S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("ROSTER_S3_PREFIX", cfg.S3Prefix)
	cfg.S3AccessKey = getEnv("ROSTER_S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("ROSTER_S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3UsePathStyle = getEnvBool("ROSTER_S3_USE_PATH_STYLE", cfg.S3UsePathStyle)

	// Cache config
	cfg.CacheEnabled = getEnvBool("ROSTER_CACHE_ENABLED", cfg.CacheEnabled)
	if cacheSize := getEnvInt("ROSTER_CACHE_SIZE", 0); cacheSize > 0 {
		cfg.CacheSize = cacheSize
	}

	cfg.ConnectTimeout = getEnvDuration("ROSTER_STORE_CONNECT_TIMEOUT", cfg.ConnectTimeout)

	return cfg
}

// loadMembershipConfig loads integrity engine configuration from environment
func loadMembershipConfig() MembershipConfig {
	return MembershipConfig{
		KeyPrefix:          getEnv("ROSTER_KEY_PREFIX", repository.DefaultKeyPrefix),
		VerifyInvariants:   getEnvBool("ROSTER_VERIFY_INVARIANTS", false),
		DefaultChannelName: getEnv("ROSTER_DEFAULT_CHANNEL", "general"),
		SeedFile:           getEnv("ROSTER_SEED_FILE", ""),
	}
}

// loadAuditConfig loads audit configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:         getEnvBool("ROSTER_AUDIT_ENABLED", true),
		MaxEvents:       getEnvInt("ROSTER_AUDIT_MAX_EVENTS", 10000),
		FilePath:        getEnv("ROSTER_AUDIT_FILE", ""),
		MaxFileSize:     getEnvInt64("ROSTER_AUDIT_MAX_FILE_SIZE", 100*1024*1024),
		RetentionDays:   getEnvInt("ROSTER_AUDIT_RETENTION_DAYS", 90),
		CleanupSchedule: getEnv("ROSTER_AUDIT_CLEANUP_SCHEDULE", "@daily"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("ROSTER_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("ROSTER_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("ROSTER_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ROSTER_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ROSTER_OTEL_SERVICE_NAME", "roster"),
		OTelServiceVersion: getEnv("ROSTER_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("ROSTER_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate store config based on type
	switch c.Store.Type {
	case kvstore.BackendMemory:
	case kvstore.BackendFilesystem:
		if c.Store.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem store")
		}
	case kvstore.BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis store")
		}
	case kvstore.BackendSQLite:
		if c.Store.SQLiteDSN == "" {
			return fmt.Errorf("sqlite DSN is required for sqlite store")
		}
	case kvstore.BackendPostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres store")
		}
	case kvstore.BackendS3:
		if c.Store.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be memory, filesystem, redis, sqlite, postgres, or s3)", c.Store.Type)
	}
	if c.Store.CacheEnabled && c.Store.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive when the cache is enabled")
	}

	// Validate membership config
	if c.Membership.KeyPrefix == "" {
		return fmt.Errorf("key prefix is required")
	}
	if strings.TrimSpace(c.Membership.DefaultChannelName) == "" {
		return fmt.Errorf("default channel name is required")
	}

	// Validate audit config
	if c.Audit.Enabled {
		if c.Audit.MaxEvents <= 0 {
			return fmt.Errorf("audit max events must be positive")
		}
		if c.Audit.RetentionDays < 0 {
			return fmt.Errorf("audit retention days must not be negative")
		}
		if c.Audit.CleanupSchedule != "" {
			if _, err := cron.ParseStandard(c.Audit.CleanupSchedule); err != nil {
				return fmt.Errorf("invalid audit cleanup schedule %q: %w", c.Audit.CleanupSchedule, err)
			}
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
