package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBLogger writes entries to the system_logs table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed logger. The table is created by the
// rbac migrations.
func NewDBLogger(db *sql.DB) *DBLogger {
	return &DBLogger{db: db}
}

// Log inserts entry and sets its ID
func (l *DBLogger) Log(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Level == "" {
		entry.Level = LevelInfo
	}

	query := `
		INSERT INTO system_logs (level, username, action, message, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := l.db.QueryRowContext(ctx, query,
		string(entry.Level),
		nullString(entry.Username),
		entry.Action,
		entry.Message,
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		nullString(entry.Details),
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert system log: %w", err)
	}
	return nil
}

// Close is a no-op; the database handle is shared
func (l *DBLogger) Close() error {
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
