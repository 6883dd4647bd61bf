//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database. Tests using it are skipped unless DATABASE_URL is set.
package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/library-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL names the variable holding the test database connection string.
const EnvDatabaseURL = "DATABASE_URL"

// Timeout bounds setup and cleanup statements.
const Timeout = 5 * time.Second

var (
	migrateOnce sync.Once
	migrateErr  error
)

// URL returns the test database URL, or "" when none is configured.
func URL() string {
	return os.Getenv(EnvDatabaseURL)
}

// Open connects to the test database, applies the embedded migrations once
// per process and closes the connection when the test finishes.
// The test is skipped when DATABASE_URL is unset.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := URL()
	if dbURL == "" {
		t.Skip(EnvDatabaseURL + " not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database is not reachable")

	migrateOnce.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		migrateErr = postgres.Migrate(context.Background(), db, quiet, "up")
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

// Reset empties the data tables, leaving seeded roles in place.
// Call it at the start of a test that needs a clean slate.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	_, err := db.ExecContext(ctx, "TRUNCATE books, authors, user_roles, users")
	require.NoError(t, err, "failed to reset tables")
}
