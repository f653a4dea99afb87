package rbac

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

// SkipIfNoDatabase skips the test if TEST_POSTGRES_PRIMARY environment variable is not set.
// This allows tests to run in CI where the database is available, but skip locally if not configured.
func SkipIfNoDatabase(t *testing.T) string {
	t.Helper()

	dbURL := os.Getenv("TEST_POSTGRES_PRIMARY")
	if dbURL == "" {
		t.Skip("Skipping test: TEST_POSTGRES_PRIMARY environment variable not set (database not available)")
	}

	return dbURL
}

// RequireDatabase opens the postgres database named by TEST_POSTGRES_PRIMARY,
// migrates it and empties the RBAC tables, or skips the test.
func RequireDatabase(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := SkipIfNoDatabase(t)
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, _, err := OpenDB(ctx, "postgres", dbURL, PoolConfig{MaxOpenConns: 5})
	if err != nil {
		t.Skipf("Database not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := Migrate(ctx, db, DialectPostgres); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE role_menus, user_roles, menus, roles, users, system_logs RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
	return db
}

// NewTestDB returns a migrated in-memory SQLite database closed at test end
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, _, err := OpenDB(ctx, "sqlite3", ":memory:", PoolConfig{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := Migrate(ctx, db, DialectSQLite); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}
