//go:build integration

package integration

import (
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/redis"
	"github.com/sevadesk/civicbook/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "civicbook_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func runMigrations(t *testing.T, db *sql.DB, paths ...string) {
	t.Helper()
	for _, path := range paths {
		migrationSQL, err := os.ReadFile(path)
		require.NoError(t, err)
		_, err = db.Exec(string(migrationSQL))
		require.NoError(t, err)
	}
}

func cleanupBookingData(t *testing.T, db *sql.DB) {
	t.Helper()
	tables := []string{
		"booking_documents",
		"bookings",
		"slot_ledgers",
		"daily_ledgers",
		"token_counters",
		"services",
		"departments",
	}
	for _, table := range tables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func seedBookingData(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO departments (id, name, booking_window_days, working_hours, token_config, created_at, updated_at)
		VALUES (
			'dept-int-1',
			'Integration Test Office',
			7,
			'[{"day":1,"open_time":"09:00","close_time":"17:00"}]',
			'{"slot_interval_minutes":30,"max_daily_tokens":100,"queue_type":"hybrid","max_tokens_per_slot":10,"allow_priority_tokens":true,"priority_percentage":20,"auto_stop_on_overload":true}',
			NOW(), NOW()
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO services (id, department_id, name, description, requires_documents, required_documents, created_at, updated_at)
		VALUES (
			'svc-int-1',
			'dept-int-1',
			'Integration Test Service',
			'Service used by integration tests',
			true,
			'[{"name":"identity_proof","mandatory":true}]',
			NOW(), NOW()
		)
	`)
	require.NoError(t, err)
}
