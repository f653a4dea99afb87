package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Dialect selects the SQL flavour of the schema
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// rewrite adapts postgres DDL to the dialect
func (d Dialect) rewrite(ddl string) string {
	if d != DialectSQLite {
		return ddl
	}
	return strings.ReplaceAll(ddl, "BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT")
}

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the schema in apply order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL DEFAULT '',
					email VARCHAR(100) UNIQUE,
					full_name VARCHAR(100),
					phone VARCHAR(20),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					password_change_required BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					last_login TIMESTAMP
				);
			`,
		},
		{
			Version:     2,
			Description: "Create roles and user_roles tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS roles (
					id BIGSERIAL PRIMARY KEY,
					role_name VARCHAR(50) NOT NULL UNIQUE,
					description VARCHAR(255),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE TABLE IF NOT EXISTS user_roles (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role_id BIGINT NOT NULL REFERENCES roles(id),
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (user_id, role_id)
				);

				CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON user_roles(role_id);
			`,
		},
		{
			Version:     3,
			Description: "Create menus table",
			SQL: `
				CREATE TABLE IF NOT EXISTS menus (
					id BIGSERIAL PRIMARY KEY,
					menu_code VARCHAR(50) UNIQUE,
					menu_name VARCHAR(100) NOT NULL,
					parent_id BIGINT REFERENCES menus(id),
					url VARCHAR(255),
					icon VARCHAR(100),
					order_num INTEGER NOT NULL DEFAULT 0,
					is_visible BOOLEAN NOT NULL DEFAULT TRUE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					description VARCHAR(255),
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_menus_parent_id ON menus(parent_id);
				CREATE INDEX IF NOT EXISTS idx_menus_menu_name ON menus(menu_name);
			`,
		},
		{
			Version:     4,
			Description: "Create role_menus table",
			SQL: `
				CREATE TABLE IF NOT EXISTS role_menus (
					id BIGSERIAL PRIMARY KEY,
					role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					menu_id BIGINT NOT NULL REFERENCES menus(id) ON DELETE CASCADE,
					can_read BOOLEAN NOT NULL DEFAULT TRUE,
					can_write BOOLEAN NOT NULL DEFAULT FALSE,
					can_delete BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE (role_id, menu_id)
				);

				CREATE INDEX IF NOT EXISTS idx_role_menus_menu_id ON role_menus(menu_id);
			`,
		},
		{
			Version:     5,
			Description: "Create system_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS system_logs (
					id BIGSERIAL PRIMARY KEY,
					level VARCHAR(10) NOT NULL,
					username VARCHAR(50),
					action VARCHAR(100) NOT NULL,
					message TEXT NOT NULL,
					ip_address VARCHAR(45),
					user_agent TEXT,
					details TEXT,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_system_logs_created_at ON system_logs(created_at);
				CREATE INDEX IF NOT EXISTS idx_system_logs_username ON system_logs(username);
				CREATE INDEX IF NOT EXISTS idx_system_logs_level ON system_logs(level);
			`,
		},
	}
}

// Migrate applies every migration not yet recorded in schema_migrations and
// returns the versions it applied. Each migration runs in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) ([]int, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema_migrations: %w", err)
	}

	var done []int
	for _, m := range GetMigrations() {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, db, dialect, m); err != nil {
			return done, err
		}
		done = append(done, m.Version)
	}
	return done, nil
}

func applyMigration(ctx context.Context, db *sql.DB, dialect Dialect, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	// lib/pq runs multi-statement strings only without arguments; split so
	// both drivers see one statement per Exec.
	for _, stmt := range strings.Split(dialect.rewrite(m.SQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)",
		m.Version, m.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}
	return tx.Commit()
}
