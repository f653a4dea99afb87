package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const grantColumns = `id, role_id, menu_id, can_read, can_write, can_delete, created_at, updated_at`

func scanGrant(row rowScanner) (*Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.RoleID, &g.MenuID, &g.CanRead, &g.CanWrite, &g.CanDelete, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) queryGrants(ctx context.Context, query string, args ...interface{}) ([]*Grant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	grants := make([]*Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grants: %w", err)
	}
	return grants, nil
}

const grantDetailSelect = `
	SELECT rm.id, rm.role_id, rm.menu_id, rm.can_read, rm.can_write, rm.can_delete, rm.created_at, rm.updated_at,
	       r.role_name, m.menu_name, m.menu_code
	FROM role_menus rm
	JOIN roles r ON r.id = rm.role_id
	JOIN menus m ON m.id = rm.menu_id`

func (s *Store) queryGrantDetails(ctx context.Context, where string, args ...interface{}) ([]*GrantDetail, error) {
	rows, err := s.db.QueryContext(ctx, grantDetailSelect+" "+where+" ORDER BY rm.role_id, m.order_num, m.id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grant details: %w", err)
	}
	defer rows.Close()

	details := make([]*GrantDetail, 0)
	for rows.Next() {
		var d GrantDetail
		var code sql.NullString
		err := rows.Scan(&d.ID, &d.RoleID, &d.MenuID, &d.CanRead, &d.CanWrite, &d.CanDelete, &d.CreatedAt, &d.UpdatedAt,
			&d.RoleName, &d.MenuName, &code)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant detail: %w", err)
		}
		d.MenuCode = MenuCode(code.String)
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grant details: %w", err)
	}
	return details, nil
}

// ListGrants returns every grant ordered by id
func (s *Store) ListGrants(ctx context.Context) ([]*Grant, error) {
	return s.queryGrants(ctx, "SELECT "+grantColumns+" FROM role_menus ORDER BY id")
}

// ListGrantsPage returns one page of grants and the total count
func (s *Store) ListGrantsPage(ctx context.Context, page, size int) ([]*Grant, int64, error) {
	total, err := s.CountGrants(ctx)
	if err != nil {
		return nil, 0, err
	}
	grants, err := s.queryGrants(ctx, "SELECT "+grantColumns+" FROM role_menus ORDER BY id LIMIT $1 OFFSET $2", size, page*size)
	if err != nil {
		return nil, 0, err
	}
	return grants, total, nil
}

// CountGrants returns the number of grants
func (s *Store) CountGrants(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role_menus").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count grants: %w", err)
	}
	return n, nil
}

// GetGrant retrieves a grant by ID
func (s *Store) GetGrant(ctx context.Context, id int64) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+grantColumns+" FROM role_menus WHERE id = $1", id)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("grant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return g, nil
}

// FindGrant retrieves the grant of a role on a menu
func (s *Store) FindGrant(ctx context.Context, roleID, menuID int64) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+grantColumns+" FROM role_menus WHERE role_id = $1 AND menu_id = $2", roleID, menuID)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("grant", fmt.Sprintf("role=%d menu=%d", roleID, menuID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return g, nil
}

// GrantsByRole returns the grants of a role with menu names
func (s *Store) GrantsByRole(ctx context.Context, roleID int64) ([]*GrantDetail, error) {
	return s.queryGrantDetails(ctx, "WHERE rm.role_id = $1", roleID)
}

// GrantsByMenu returns the grants on a menu with role names
func (s *Store) GrantsByMenu(ctx context.Context, menuID int64) ([]*GrantDetail, error) {
	return s.queryGrantDetails(ctx, "WHERE rm.menu_id = $1", menuID)
}

// GrantsByUser returns the grants of every active role the user holds
func (s *Store) GrantsByUser(ctx context.Context, userID int64) ([]*GrantDetail, error) {
	return s.queryGrantDetails(ctx,
		"WHERE r.is_active = TRUE AND rm.role_id IN (SELECT role_id FROM user_roles WHERE user_id = $1)", userID)
}

// MenuIDsByRole returns the ids of the menus a role has grants on
func (s *Store) MenuIDsByRole(ctx context.Context, roleID int64) ([]int64, error) {
	return s.queryIDs(ctx, "SELECT menu_id FROM role_menus WHERE role_id = $1 ORDER BY menu_id", roleID)
}

// RoleIDsByMenu returns the ids of the roles with grants on a menu
func (s *Store) RoleIDsByMenu(ctx context.Context, menuID int64) ([]int64, error) {
	return s.queryIDs(ctx, "SELECT role_id FROM role_menus WHERE menu_id = $1 ORDER BY role_id", menuID)
}

// GrantExists reports whether a role has a grant on a menu
func (s *Store) GrantExists(ctx context.Context, roleID, menuID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role_menus WHERE role_id = $1 AND menu_id = $2", roleID, menuID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check grant: %w", err)
	}
	return n > 0, nil
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) insertGrant(ctx context.Context, q execQuerier, g *Grant) error {
	query := `
		INSERT INTO role_menus (role_id, menu_id, can_read, can_write, can_delete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := s.now()
	err := q.QueryRowContext(ctx, query, g.RoleID, g.MenuID, g.CanRead, g.CanWrite, g.CanDelete, now, now).Scan(&g.ID)
	if err != nil {
		return writeError("create grant", err)
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

// CreateGrant inserts g and sets its ID and timestamps
func (s *Store) CreateGrant(ctx context.Context, g *Grant) error {
	return s.insertGrant(ctx, s.db, g)
}

// CreateGrants inserts every grant in one transaction; any failure
// leaves no grant behind
func (s *Store) CreateGrants(ctx context.Context, grants []*Grant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, g := range grants {
		if err := s.insertGrant(ctx, tx, g); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grants: %w", err)
	}
	return nil
}

// UpdateGrant writes the three bits of g
func (s *Store) UpdateGrant(ctx context.Context, g *Grant) error {
	now := s.now()
	result, err := s.db.ExecContext(ctx,
		"UPDATE role_menus SET can_read = $1, can_write = $2, can_delete = $3, updated_at = $4 WHERE id = $5",
		g.CanRead, g.CanWrite, g.CanDelete, now, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	if err := expectAffected(result, "grant", g.ID); err != nil {
		return err
	}
	g.UpdatedAt = now
	return nil
}

// ReplaceRoleGrants swaps every grant of a role for grants in one transaction
func (s *Store) ReplaceRoleGrants(ctx context.Context, roleID int64, grants []*Grant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_menus WHERE role_id = $1", roleID); err != nil {
		return fmt.Errorf("failed to clear role grants: %w", err)
	}
	for _, g := range grants {
		g.RoleID = roleID
		if err := s.insertGrant(ctx, tx, g); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role grants: %w", err)
	}
	return nil
}

// DeleteGrant removes a grant by ID
func (s *Store) DeleteGrant(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM role_menus WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	return expectAffected(result, "grant", id)
}

// DeleteGrantByRoleAndMenu removes the grant of a role on a menu
func (s *Store) DeleteGrantByRoleAndMenu(ctx context.Context, roleID, menuID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM role_menus WHERE role_id = $1 AND menu_id = $2", roleID, menuID)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	return expectAffected(result, "grant", fmt.Sprintf("role=%d menu=%d", roleID, menuID))
}

// DeleteGrantsByRole removes every grant of a role and returns the count
func (s *Store) DeleteGrantsByRole(ctx context.Context, roleID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM role_menus WHERE role_id = $1", roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete role grants: %w", err)
	}
	return result.RowsAffected()
}

// DeleteGrantsByMenu removes every grant on a menu and returns the count
func (s *Store) DeleteGrantsByMenu(ctx context.Context, menuID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM role_menus WHERE menu_id = $1", menuID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete menu grants: %w", err)
	}
	return result.RowsAffected()
}
