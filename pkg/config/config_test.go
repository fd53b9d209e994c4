package config

import (
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/roster/pkg/kvstore"
	"github.com/platinummonkey/roster/pkg/observability"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ROSTER_TEST_STR", "custom")
	t.Setenv("ROSTER_TEST_BOOL", "1")
	t.Setenv("ROSTER_TEST_INT", "42")
	t.Setenv("ROSTER_TEST_BAD_INT", "forty")
	t.Setenv("ROSTER_TEST_INT64", "9000000000")
	t.Setenv("ROSTER_TEST_DURATION", "90s")
	t.Setenv("ROSTER_TEST_BAD_DURATION", "soon")

	if got := getEnv("ROSTER_TEST_STR", "default"); got != "custom" {
		t.Errorf("getEnv() = %v, want custom", got)
	}
	if got := getEnv("ROSTER_TEST_UNSET", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want default", got)
	}
	if !getEnvBool("ROSTER_TEST_BOOL", false) {
		t.Error("getEnvBool() should accept 1")
	}
	if !getEnvBool("ROSTER_TEST_UNSET", true) {
		t.Error("getEnvBool() should fall back to the default")
	}
	if got := getEnvInt("ROSTER_TEST_INT", 0); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}
	if got := getEnvInt("ROSTER_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %v, want default 7 for unparsable value", got)
	}
	if got := getEnvInt64("ROSTER_TEST_INT64", 0); got != 9000000000 {
		t.Errorf("getEnvInt64() = %v", got)
	}
	if got := getEnvDuration("ROSTER_TEST_DURATION", 0); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}
	if got := getEnvDuration("ROSTER_TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %v, want default for unparsable value", got)
	}
}

func TestGetEnvBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"false", false},
		{"yes", false},
		{"0", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ROSTER_TEST_BOOL", tt.value)
			if got := getEnvBool("ROSTER_TEST_BOOL", !tt.want); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.HealthPort != "9090" {
		t.Errorf("unexpected ports %s/%s", cfg.Server.Port, cfg.Server.HealthPort)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Type != kvstore.BackendMemory {
		t.Errorf("Store.Type = %v, want memory", cfg.Store.Type)
	}
	if cfg.Membership.KeyPrefix != "roster:" {
		t.Errorf("KeyPrefix = %v", cfg.Membership.KeyPrefix)
	}
	if cfg.Membership.VerifyInvariants {
		t.Error("invariant verification should default to off")
	}
	if cfg.Membership.DefaultChannelName != "general" {
		t.Errorf("DefaultChannelName = %v", cfg.Membership.DefaultChannelName)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 90 || cfg.Audit.CleanupSchedule != "@daily" {
		t.Errorf("unexpected audit defaults %+v", cfg.Audit)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.OTelServiceName != "roster" {
		t.Errorf("OTelServiceName = %v", cfg.Observability.OTelServiceName)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ROSTER_PORT", "8000")
	t.Setenv("ROSTER_HEALTH_PORT", "8001")
	t.Setenv("ROSTER_STORE_TYPE", "Redis")
	t.Setenv("ROSTER_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("ROSTER_REDIS_DB", "0")
	t.Setenv("ROSTER_REDIS_POOL_SIZE", "25")
	t.Setenv("ROSTER_CACHE_ENABLED", "true")
	t.Setenv("ROSTER_CACHE_SIZE", "128")
	t.Setenv("ROSTER_KEY_PREFIX", "test:")
	t.Setenv("ROSTER_VERIFY_INVARIANTS", "true")
	t.Setenv("ROSTER_SEED_FILE", "/etc/roster/seed.yaml")
	t.Setenv("ROSTER_AUDIT_FILE", "/var/log/roster/audit.log")
	t.Setenv("ROSTER_AUDIT_RETENTION_DAYS", "30")
	t.Setenv("ROSTER_AUDIT_CLEANUP_SCHEDULE", "0 3 * * *")
	t.Setenv("ROSTER_LOG_LEVEL", "debug")
	t.Setenv("ROSTER_OTEL_ENABLED", "true")
	t.Setenv("ROSTER_OTEL_ENDPOINT", "collector:4317")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8000" || cfg.Server.HealthPort != "8001" {
		t.Errorf("unexpected ports %s/%s", cfg.Server.Port, cfg.Server.HealthPort)
	}
	if cfg.Store.Type != kvstore.BackendRedis {
		t.Errorf("Store.Type = %v, want redis", cfg.Store.Type)
	}
	if cfg.Store.RedisURL != "redis://cache:6379/2" || cfg.Store.RedisDB != 0 || cfg.Store.RedisPoolSize != 25 {
		t.Errorf("unexpected redis config %+v", cfg.Store)
	}
	if !cfg.Store.CacheEnabled || cfg.Store.CacheSize != 128 {
		t.Errorf("unexpected cache config enabled=%v size=%d", cfg.Store.CacheEnabled, cfg.Store.CacheSize)
	}
	if cfg.Membership.KeyPrefix != "test:" || !cfg.Membership.VerifyInvariants {
		t.Errorf("unexpected membership config %+v", cfg.Membership)
	}
	if cfg.Membership.SeedFile != "/etc/roster/seed.yaml" {
		t.Errorf("SeedFile = %v", cfg.Membership.SeedFile)
	}
	if cfg.Audit.FilePath != "/var/log/roster/audit.log" || cfg.Audit.RetentionDays != 30 {
		t.Errorf("unexpected audit config %+v", cfg.Audit)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.OTelEnabled || cfg.Observability.OTelEndpoint != "collector:4317" {
		t.Errorf("unexpected otel config %+v", cfg.Observability)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("ROSTER_STORE_TYPE", "etcd")
	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected an error for an unknown store type")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("unexpected error %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", HealthPort: "9090"},
		Store:  kvstore.DefaultConfig(),
		Membership: MembershipConfig{
			KeyPrefix:          "roster:",
			DefaultChannelName: "general",
		},
		Audit: AuditConfig{
			Enabled:         true,
			MaxEvents:       100,
			RetentionDays:   90,
			CleanupSchedule: "@daily",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"missing health port", func(c *Config) { c.Server.HealthPort = "" }, "health port is required"},
		{"same ports", func(c *Config) { c.Server.HealthPort = "8080" }, "must be different"},
		{"unknown store", func(c *Config) { c.Store.Type = "etcd" }, "invalid store type"},
		{"filesystem without root", func(c *Config) {
			c.Store.Type = kvstore.BackendFilesystem
			c.Store.FilesystemRoot = ""
		}, "filesystem root is required"},
		{"redis without url", func(c *Config) {
			c.Store.Type = kvstore.BackendRedis
			c.Store.RedisURL = ""
		}, "redis URL is required"},
		{"sqlite without dsn", func(c *Config) {
			c.Store.Type = kvstore.BackendSQLite
			c.Store.SQLiteDSN = ""
		}, "sqlite DSN is required"},
		{"postgres without url", func(c *Config) {
			c.Store.Type = kvstore.BackendPostgres
		}, "postgres URL is required"},
		{"s3 without bucket", func(c *Config) {
			c.Store.Type = kvstore.BackendS3
		}, "S3 bucket is required"},
		{"s3 with bucket", func(c *Config) {
			c.Store.Type = kvstore.BackendS3
			c.Store.S3Bucket = "roster"
		}, ""},
		{"cache without size", func(c *Config) {
			c.Store.CacheEnabled = true
			c.Store.CacheSize = 0
		}, "cache size must be positive"},
		{"empty prefix", func(c *Config) { c.Membership.KeyPrefix = "" }, "key prefix is required"},
		{"blank channel name", func(c *Config) { c.Membership.DefaultChannelName = " " }, "default channel name"},
		{"bad schedule", func(c *Config) { c.Audit.CleanupSchedule = "every tuesday" }, "invalid audit cleanup schedule"},
		{"audit disabled skips checks", func(c *Config) {
			c.Audit.Enabled = false
			c.Audit.MaxEvents = 0
		}, ""},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "roster"
		}, "OpenTelemetry endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
