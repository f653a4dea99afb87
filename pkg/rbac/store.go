package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Repository is the read side the engine depends on. Lookups report absence
// with an error wrapping ErrNotFound; any other error is an infrastructure
// failure.
type Repository interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetRoleNamesByUserID returns the names of the user's active roles
	GetRoleNamesByUserID(ctx context.Context, userID int64) ([]string, error)
	FindMenuByCodeOrName(ctx context.Context, code MenuCode) (*Menu, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	FindGrant(ctx context.Context, roleID, menuID int64) (*Grant, error)
	// AccessibleMenusByRoles returns the identifiers of every menu at least
	// one of the named active roles can read
	AccessibleMenusByRoles(ctx context.Context, roleNames []string) ([]string, error)
}

// Store handles RBAC data persistence over database/sql. Queries use $n
// placeholders, which both lib/pq and go-sqlite3 accept.
type Store struct {
	db             *sql.DB
	legacyFallback bool
	logger         *observability.Logger
	now            func() time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLegacyNameFallback makes FindMenuByCodeOrName fall back to the legacy
// display name when no menu carries the requested code.
func WithLegacyNameFallback(enabled bool) StoreOption {
	return func(s *Store) { s.legacyFallback = enabled }
}

// WithStoreLogger sets the logger used for data-integrity warnings
func WithStoreLogger(logger *observability.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a new RBAC store
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: observability.NewLogger(observability.InfoLevel, nil),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for migrations and health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

func notFound(what string, key interface{}) error {
	return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
}

// isUniqueViolation recognizes unique-constraint failures from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// writeError wraps a failed write, turning unique violations into conflicts
func writeError(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w: %v", op, ErrConflict, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Users

const userColumns = `id, username, password_hash, email, full_name, phone, is_active, password_change_required, created_at, updated_at, last_login`

func scanUser(row rowScanner) (*User, error) {
	var u User
	var email, fullName, phone sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &fullName, &phone,
		&u.IsActive, &u.PasswordChangeRequired, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.FullName = fullName.String
	u.Phone = phone.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user. Account management lives elsewhere; this is
// used by bootstrap and tooling.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, password_hash, email, full_name, phone, is_active, password_change_required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := s.now()
	err := s.db.QueryRowContext(ctx, query,
		u.Username,
		u.PasswordHash,
		nullString(u.Email),
		nullString(u.FullName),
		nullString(u.Phone),
		u.IsActive,
		u.PasswordChangeRequired,
		now,
		now,
	).Scan(&u.ID)
	if err != nil {
		return writeError("create user", err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetRoleNamesByUserID returns the user's active role names ordered by role id
func (s *Store) GetRoleNamesByUserID(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT r.role_name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 AND r.is_active = TRUE
		ORDER BY r.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan role name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AccessibleMenusByRoles returns the sorted, de-duplicated identifiers of the
// menus readable by any of the named active roles, in one query.
func (s *Store) AccessibleMenusByRoles(ctx context.Context, roleNames []string) ([]string, error) {
	if len(roleNames) == 0 {
		return []string{}, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT COALESCE(m.menu_code, m.menu_name) AS ident
		FROM role_menus rm
		JOIN roles r ON r.id = rm.role_id
		JOIN menus m ON m.id = rm.menu_id
		WHERE rm.can_read = TRUE AND r.is_active = TRUE AND r.role_name IN (%s)
		ORDER BY ident
	`, placeholders(1, len(roleNames)))

	args := make([]interface{}, len(roleNames))
	for i, name := range roleNames {
		args[i] = name
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get accessible menus: %w", err)
	}
	defer rows.Close()

	idents := make([]string, 0)
	for rows.Next() {
		var ident string
		if err := rows.Scan(&ident); err != nil {
			return nil, fmt.Errorf("failed to scan menu identifier: %w", err)
		}
		idents = append(idents, ident)
	}
	return idents, rows.Err()
}
