// Package config loads roster configuration from environment variables.
//
// # Overview
//
// Every setting has a default, so an empty environment yields a working
// in-memory server. LoadConfig validates the result before returning it.
//
// # Configuration Structure
//
// Server settings:
//
//	ROSTER_HOST="0.0.0.0"
//	ROSTER_PORT="8080"
//	ROSTER_HEALTH_PORT="9090"
//	ROSTER_READ_TIMEOUT="15s"
//	ROSTER_WRITE_TIMEOUT="15s"
//
// Store settings:
//
//	ROSTER_STORE_TYPE="redis"  # memory, filesystem, redis, sqlite, postgres, s3
//	ROSTER_FILESYSTEM_ROOT="/var/lib/roster"
//	ROSTER_REDIS_URL="redis://localhost:6379/0"
//	ROSTER_SQLITE_DSN="file:roster.db?cache=shared"
//	ROSTER_POSTGRES_URL="postgres://localhost/roster?sslmode=disable"
//	ROSTER_S3_BUCKET="roster-state"
//	ROSTER_CACHE_ENABLED="true"
//	ROSTER_CACHE_SIZE="64"
//
// Membership settings:
//
//	ROSTER_KEY_PREFIX="roster:"
//	ROSTER_VERIFY_INVARIANTS="true"
//	ROSTER_DEFAULT_CHANNEL="general"
//	ROSTER_SEED_FILE="/etc/roster/seed.yaml"
//
// Audit settings:
//
//	ROSTER_AUDIT_ENABLED="true"
//	ROSTER_AUDIT_FILE="/var/log/roster/audit.log"
//	ROSTER_AUDIT_RETENTION_DAYS="90"
//	ROSTER_AUDIT_CLEANUP_SCHEDULE="@daily"
//
// Observability settings:
//
//	ROSTER_LOG_LEVEL="info"  # debug, info, warn, error
//	ROSTER_METRICS_ENABLED="true"
//	ROSTER_OTEL_ENABLED="true"
//	ROSTER_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store, err := kvstore.Open(ctx, cfg.Store, metrics)
package config
