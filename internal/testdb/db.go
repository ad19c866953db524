//go:build integration

// Package testdb provides utilities specifically for database testing.
// Tests using it are skipped unless DATABASE_URL points at a PostgreSQL
// instance the tests may migrate.
package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/postmedia/internal/platform/postgres"
	"github.com/phrazzld/postmedia/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 10 * time.Second

// GetTestDatabaseURL returns the database URL for integration tests,
// preferring DATABASE_URL over the server's POSTMEDIA_DATABASE_URL.
func GetTestDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("POSTMEDIA_DATABASE_URL")
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT opens the test database, applies every migration and
// closes the connection when the test ends. The test is skipped when no
// database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping database integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open database %s", redact.String(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx), "database %s is unreachable", redact.String(dbURL))

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, quiet), "failed to apply migrations")

	return db
}

// DeletePosts removes posts (and, by cascade, their media rows) when the
// test ends.
func DeletePosts(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		for _, id := range ids {
			if _, err := db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
				t.Logf("failed to delete post %s: %v", id, err)
			}
		}
	})
}
