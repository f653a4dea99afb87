package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEntryNotFound is returned by Get for an unknown id
var ErrEntryNotFound = errors.New("system log entry not found")

// Store provides read and retention access to system logs
type Store interface {
	Search(ctx context.Context, filter SearchFilter) (*SearchResult, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	Stats(ctx context.Context) (*Stats, error)
	Count(ctx context.Context) (int64, error)
	CountByLevel(ctx context.Context, level Level) (int64, error)
	Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error)
	Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error)
}

// DBStore implements Store over the system_logs table
type DBStore struct {
	db       *sql.DB
	archiver Archiver
	now      func() time.Time
}

// NewDBStore creates a store. archiver may be nil.
func NewDBStore(db *sql.DB, archiver Archiver) *DBStore {
	return &DBStore{
		db:       db,
		archiver: archiver,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

const entryColumns = `id, level, username, action, message, ip_address, user_agent, details, created_at`

// buildWhere renders the filter as a WHERE clause with numbered placeholders
func buildWhere(filter SearchFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.StartDate != nil {
		add("created_at >= $%d", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", filter.EndDate.UTC())
	}
	if filter.Level != "" {
		add("level = $%d", string(filter.Level))
	}
	if filter.Username != "" {
		add("username = $%d", filter.Username)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.Search != "" {
		add("LOWER(message) LIKE $%d", "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system logs: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var level string
	var username, ip, agent, details sql.NullString

	err := row.Scan(&entry.ID, &level, &username, &entry.Action, &entry.Message, &ip, &agent, &details, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.Level = Level(level)
	entry.Username = username.String
	entry.IPAddress = ip.String
	entry.UserAgent = agent.String
	entry.Details = details.String
	return &entry, nil
}

// Search returns one page of entries, newest first
func (s *DBStore) Search(ctx context.Context, filter SearchFilter) (*SearchResult, error) {
	filter.Normalize()
	where, args := buildWhere(filter)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM system_logs"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count system logs: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM system_logs%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		entryColumns, where, n+1, n+2)
	args = append(args, filter.Size, filter.Page*filter.Size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search system logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan system log: %w", err)
	}

	totalPages := int((total + int64(filter.Size) - 1) / int64(filter.Size))
	return &SearchResult{
		Entries:    entries,
		Total:      total,
		Page:       filter.Page,
		Size:       filter.Size,
		TotalPages: totalPages,
	}, nil
}

// Get returns a single entry
func (s *DBStore) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM system_logs WHERE id = $1", id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get system log: %w", err)
	}
	return entry, nil
}

// Stats counts entries per level
func (s *DBStore) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT level, COUNT(*) FROM system_logs GROUP BY level")
	if err != nil {
		return nil, fmt.Errorf("failed to get system log stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan system log stats: %w", err)
		}
		stats.Total += count
		switch Level(level) {
		case LevelInfo:
			stats.Info = count
		case LevelWarning:
			stats.Warning = count
		case LevelError:
			stats.Error = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system log stats: %w", err)
	}
	return stats, nil
}

// Count returns the number of stored entries
func (s *DBStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM system_logs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count system logs: %w", err)
	}
	return count, nil
}

// CountByLevel returns the number of entries at level
func (s *DBStore) CountByLevel(ctx context.Context, level Level) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM system_logs WHERE level = $1", string(level)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count system logs by level: %w", err)
	}
	return count, nil
}

// Export renders every entry matching filter, ignoring paging
func (s *DBStore) Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM system_logs"+where+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export system logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan system log: %w", err)
	}
	return Export(entries, format)
}

// Cleanup deletes entries older than the retention window and returns the
// number removed. With archiving enabled the rows are uploaded first and
// nothing is deleted if the upload fails.
func (s *DBStore) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	if policy.RetentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", policy.RetentionDays)
	}
	cutoff := s.now().AddDate(0, 0, -policy.RetentionDays)

	if policy.ArchiveEnabled && s.archiver != nil {
		return s.archiveAndDelete(ctx, cutoff)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM system_logs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old system logs: %w", err)
	}
	return result.RowsAffected()
}

func (s *DBStore) archiveAndDelete(ctx context.Context, cutoff time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM system_logs WHERE created_at < $1 ORDER BY id", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to select expired system logs: %w", err)
	}
	entries, err := scanEntries(rows)
	rows.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to scan system log: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	body, err := exportNDJSON(entries)
	if err != nil {
		return 0, err
	}
	if err := s.archiver.Archive(ctx, cutoff, body); err != nil {
		return 0, fmt.Errorf("failed to archive system logs: %w", err)
	}

	// Only rows that made it into the archive are removed.
	maxID := entries[len(entries)-1].ID
	result, err := s.db.ExecContext(ctx, "DELETE FROM system_logs WHERE created_at < $1 AND id <= $2", cutoff, maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old system logs: %w", err)
	}
	return result.RowsAffected()
}
