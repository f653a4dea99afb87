package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// PoolConfig sizes the connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens and pings a database for driver "postgres" or "sqlite3".
// SQLite connections get foreign keys enabled so deletes cascade the same way
// on both drivers; in-memory SQLite is pinned to a single connection.
func OpenDB(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, Dialect, error) {
	var dialect Dialect
	switch driver {
	case "postgres":
		dialect = DialectPostgres
	case "sqlite3":
		dialect = DialectSQLite
		if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on"
		}
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	} else {
		if pool.MaxOpenConns > 0 {
			db.SetMaxOpenConns(pool.MaxOpenConns)
		}
		if pool.MaxIdleConns > 0 {
			db.SetMaxIdleConns(pool.MaxIdleConns)
		}
		if pool.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(pool.ConnMaxLifetime)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}
	return db, dialect, nil
}
