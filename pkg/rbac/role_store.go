package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const roleColumns = `id, role_name, description, is_active, created_at, updated_at`

func scanRole(row rowScanner) (*Role, error) {
	var r Role
	var description sql.NullString
	if err := row.Scan(&r.ID, &r.Name, &description, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Description = description.String
	return &r, nil
}

func (s *Store) queryRoles(ctx context.Context, query string, args ...interface{}) ([]*Role, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*Role, 0)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}
	return roles, nil
}

// ListRoles returns every role ordered by id
func (s *Store) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.queryRoles(ctx, "SELECT "+roleColumns+" FROM roles ORDER BY id")
}

// ListRolesByActive returns the active or inactive roles
func (s *Store) ListRolesByActive(ctx context.Context, active bool) ([]*Role, error) {
	return s.queryRoles(ctx, "SELECT "+roleColumns+" FROM roles WHERE is_active = $1 ORDER BY id", active)
}

// ListRolesPage returns one page of roles and the total count
func (s *Store) ListRolesPage(ctx context.Context, page, size int) ([]*Role, int64, error) {
	total, err := s.CountRoles(ctx)
	if err != nil {
		return nil, 0, err
	}
	roles, err := s.queryRoles(ctx, "SELECT "+roleColumns+" FROM roles ORDER BY id LIMIT $1 OFFSET $2", size, page*size)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// ListRolesByUserID returns every role assigned to a user, active or not
func (s *Store) ListRolesByUserID(ctx context.Context, userID int64) ([]*Role, error) {
	query := "SELECT " + prefixColumns("r", roleColumns) + `
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`
	return s.queryRoles(ctx, query, userID)
}

// CountRoles returns the number of roles
func (s *Store) CountRoles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count roles: %w", err)
	}
	return n, nil
}

func (s *Store) getRoleWhere(ctx context.Context, cond string, key interface{}) (*Role, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE "+cond, key)
	r, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("role", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return r, nil
}

// GetRole retrieves a role by ID
func (s *Store) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.getRoleWhere(ctx, "id = $1", id)
}

// GetRoleByName retrieves a role by its unique name
func (s *Store) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.getRoleWhere(ctx, "role_name = $1", name)
}

// CreateRole inserts r and sets its ID and timestamps
func (s *Store) CreateRole(ctx context.Context, r *Role) error {
	query := `
		INSERT INTO roles (role_name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := s.now()
	err := s.db.QueryRowContext(ctx, query, r.Name, nullString(r.Description), r.IsActive, now, now).Scan(&r.ID)
	if err != nil {
		return writeError("create role", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// UpdateRole writes every column of r. A stale r overwrites changes made
// since it was read, including SetRoleActive; callers re-read the row first.
func (s *Store) UpdateRole(ctx context.Context, r *Role) error {
	now := s.now()
	result, err := s.db.ExecContext(ctx,
		"UPDATE roles SET role_name = $1, description = $2, is_active = $3, updated_at = $4 WHERE id = $5",
		r.Name, nullString(r.Description), r.IsActive, now, r.ID)
	if err != nil {
		return writeError("update role", err)
	}
	if err := expectAffected(result, "role", r.ID); err != nil {
		return err
	}
	r.UpdatedAt = now
	return nil
}

// SetRoleActive activates or deactivates a role
func (s *Store) SetRoleActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, "UPDATE roles SET is_active = $1, updated_at = $2 WHERE id = $3", active, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update role status: %w", err)
	}
	return expectAffected(result, "role", id)
}

// DeleteRole removes a role; its grants cascade
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return expectAffected(result, "role", id)
}

// CountUsersWithRole returns how many users hold a role
func (s *Store) CountUsersWithRole(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_roles WHERE role_id = $1", roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count role users: %w", err)
	}
	return n, nil
}

// UserIDsByRole returns the ids of the users holding a role
func (s *Store) UserIDsByRole(ctx context.Context, roleID int64) ([]int64, error) {
	return s.queryIDs(ctx, "SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id", roleID)
}

// HasRole reports whether a user holds a role
func (s *Store) HasRole(ctx context.Context, userID, roleID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check role assignment: %w", err)
	}
	return n > 0, nil
}

// AssignRole gives a user a role
func (s *Store) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, $3)", userID, roleID, s.now())
	if err != nil {
		return writeError("assign role", err)
	}
	return nil
}

// RemoveRole takes a role from a user
func (s *Store) RemoveRole(ctx context.Context, userID, roleID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return expectAffected(result, "role assignment", fmt.Sprintf("user=%d role=%d", userID, roleID))
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
