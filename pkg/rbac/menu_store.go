package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const menuColumns = `id, menu_code, menu_name, parent_id, url, icon, order_num, is_visible, is_active, description, created_at, updated_at`

func scanMenu(row rowScanner) (*Menu, error) {
	var m Menu
	var code, url, icon, description sql.NullString
	var parentID sql.NullInt64
	err := row.Scan(&m.ID, &code, &m.Name, &parentID, &url, &icon, &m.OrderNum,
		&m.IsVisible, &m.IsActive, &description, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Code = MenuCode(code.String)
	m.URL = url.String
	m.Icon = icon.String
	m.Description = description.String
	if parentID.Valid {
		p := parentID.Int64
		m.ParentID = &p
	}
	return &m, nil
}

func (s *Store) queryMenus(ctx context.Context, query string, args ...interface{}) ([]*Menu, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menus: %w", err)
	}
	defer rows.Close()

	menus := make([]*Menu, 0)
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menus: %w", err)
	}
	return menus, nil
}

func (s *Store) getMenuWhere(ctx context.Context, cond string, key interface{}) (*Menu, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+menuColumns+" FROM menus WHERE "+cond, key)
	m, err := scanMenu(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("menu", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}
	return m, nil
}

// ListMenus returns every menu in sibling order
func (s *Store) ListMenus(ctx context.Context) ([]*Menu, error) {
	return s.queryMenus(ctx, "SELECT "+menuColumns+" FROM menus ORDER BY order_num, id")
}

// ListRootMenus returns the top-level menus
func (s *Store) ListRootMenus(ctx context.Context) ([]*Menu, error) {
	return s.queryMenus(ctx, "SELECT "+menuColumns+" FROM menus WHERE parent_id IS NULL ORDER BY order_num, id")
}

// ListChildMenus returns the direct children of parentID
func (s *Store) ListChildMenus(ctx context.Context, parentID int64) ([]*Menu, error) {
	return s.queryMenus(ctx, "SELECT "+menuColumns+" FROM menus WHERE parent_id = $1 ORDER BY order_num, id", parentID)
}

// SearchMenus matches keyword case-insensitively against name, description and url
func (s *Store) SearchMenus(ctx context.Context, keyword string) ([]*Menu, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	query := "SELECT " + menuColumns + ` FROM menus
		WHERE LOWER(menu_name) LIKE $1 OR LOWER(COALESCE(description, '')) LIKE $1 OR LOWER(COALESCE(url, '')) LIKE $1
		ORDER BY order_num, id`
	return s.queryMenus(ctx, query, pattern)
}

// ListMenusPage returns one page of menus and the total count
func (s *Store) ListMenusPage(ctx context.Context, page, size int) ([]*Menu, int64, error) {
	total, err := s.CountMenus(ctx)
	if err != nil {
		return nil, 0, err
	}
	menus, err := s.queryMenus(ctx, "SELECT "+menuColumns+" FROM menus ORDER BY order_num, id LIMIT $1 OFFSET $2", size, page*size)
	if err != nil {
		return nil, 0, err
	}
	return menus, total, nil
}

// CountMenus returns the number of menus
func (s *Store) CountMenus(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM menus").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count menus: %w", err)
	}
	return n, nil
}

// GetMenu retrieves a menu by ID
func (s *Store) GetMenu(ctx context.Context, id int64) (*Menu, error) {
	return s.getMenuWhere(ctx, "id = $1", id)
}

// GetMenuByCode retrieves a menu by its code
func (s *Store) GetMenuByCode(ctx context.Context, code MenuCode) (*Menu, error) {
	return s.getMenuWhere(ctx, "menu_code = $1", string(code))
}

// GetMenuByName retrieves the first menu with the given display name
func (s *Store) GetMenuByName(ctx context.Context, name string) (*Menu, error) {
	return s.getMenuWhere(ctx, "menu_name = $1 ORDER BY id LIMIT 1", name)
}

// FindMenuByCodeOrName resolves a menu by code, then, when the legacy
// fallback is enabled, by the display name the code used to map to.
func (s *Store) FindMenuByCodeOrName(ctx context.Context, code MenuCode) (*Menu, error) {
	m, err := s.GetMenuByCode(ctx, code)
	if err == nil || !errors.Is(err, ErrNotFound) || !s.legacyFallback {
		return m, err
	}

	name, known := LegacyMenuName(code)
	if !known {
		s.logger.WithField("menu_code", string(code)).Warn("Unknown menu code, matching display name verbatim")
	}
	m, err = s.GetMenuByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"menu_code": string(code),
		"menu_name": name,
		"menu_id":   m.ID,
	}).Warn("Menu resolved by legacy display name; backfill menu_code")
	return m, nil
}

// CountChildMenus returns the number of direct children of id
func (s *Store) CountChildMenus(ctx context.Context, id int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM menus WHERE parent_id = $1", id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count child menus: %w", err)
	}
	return n, nil
}

// NextOrderNum returns max(sibling order_num)+1 under parentID, or 1 for an
// empty level
func (s *Store) NextOrderNum(ctx context.Context, parentID *int64) (int, error) {
	var max sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRowContext(ctx, "SELECT MAX(order_num) FROM menus WHERE parent_id IS NULL").Scan(&max)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT MAX(order_num) FROM menus WHERE parent_id = $1", *parentID).Scan(&max)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get next order: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// CreateMenu inserts m and sets its ID and timestamps
func (s *Store) CreateMenu(ctx context.Context, m *Menu) error {
	query := `
		INSERT INTO menus (menu_code, menu_name, parent_id, url, icon, order_num, is_visible, is_active, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	now := s.now()
	err := s.db.QueryRowContext(ctx, query,
		nullString(string(m.Code)),
		m.Name,
		nullInt64(m.ParentID),
		nullString(m.URL),
		nullString(m.Icon),
		m.OrderNum,
		m.IsVisible,
		m.IsActive,
		nullString(m.Description),
		now,
		now,
	).Scan(&m.ID)
	if err != nil {
		return writeError("create menu", err)
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// UpdateMenu writes every column of m
func (s *Store) UpdateMenu(ctx context.Context, m *Menu) error {
	query := `
		UPDATE menus
		SET menu_code = $1, menu_name = $2, parent_id = $3, url = $4, icon = $5, order_num = $6,
		    is_visible = $7, is_active = $8, description = $9, updated_at = $10
		WHERE id = $11
	`
	now := s.now()
	result, err := s.db.ExecContext(ctx, query,
		nullString(string(m.Code)),
		m.Name,
		nullInt64(m.ParentID),
		nullString(m.URL),
		nullString(m.Icon),
		m.OrderNum,
		m.IsVisible,
		m.IsActive,
		nullString(m.Description),
		now,
		m.ID,
	)
	if err != nil {
		return writeError("update menu", err)
	}
	if err := expectAffected(result, "menu", m.ID); err != nil {
		return err
	}
	m.UpdatedAt = now
	return nil
}

// UpdateMenuOrder sets the sibling position of a menu
func (s *Store) UpdateMenuOrder(ctx context.Context, id int64, order int) error {
	result, err := s.db.ExecContext(ctx, "UPDATE menus SET order_num = $1, updated_at = $2 WHERE id = $3", order, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update menu order: %w", err)
	}
	return expectAffected(result, "menu", id)
}

// SetMenuVisibility shows or hides a menu
func (s *Store) SetMenuVisibility(ctx context.Context, id int64, visible bool) error {
	result, err := s.db.ExecContext(ctx, "UPDATE menus SET is_visible = $1, updated_at = $2 WHERE id = $3", visible, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update menu visibility: %w", err)
	}
	return expectAffected(result, "menu", id)
}

// DeleteMenu removes a menu row; grants on it cascade
func (s *Store) DeleteMenu(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM menus WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete menu: %w", err)
	}
	return expectAffected(result, "menu", id)
}

// ListReadableMenus returns the visible, active menus that at least one of
// the user's active roles can read, in sibling order
func (s *Store) ListReadableMenus(ctx context.Context, userID int64) ([]*Menu, error) {
	query := "SELECT " + prefixColumns("m", menuColumns) + `
		FROM menus m
		WHERE m.is_visible = TRUE AND m.is_active = TRUE AND EXISTS (
			SELECT 1
			FROM role_menus rm
			JOIN roles r ON r.id = rm.role_id
			JOIN user_roles ur ON ur.role_id = r.id
			WHERE rm.menu_id = m.id AND rm.can_read = TRUE AND r.is_active = TRUE AND ur.user_id = $1
		)
		ORDER BY m.order_num, m.id`
	return s.queryMenus(ctx, query, userID)
}

func expectAffected(result sql.Result, what string, key interface{}) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(what, key)
	}
	return nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
