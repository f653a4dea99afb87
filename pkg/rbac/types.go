package rbac

import (
	"net/http"
	"strings"
	"time"
)

// Action is a single grant bit
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the three grant bits
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete:
		return true
	}
	return false
}

// ParseAction accepts action names case-insensitively
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	return a, a.Valid()
}

// ActionForMethod maps an HTTP method onto the grant bit it needs
func ActionForMethod(method string) (Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRead, true
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite, true
	case http.MethodDelete:
		return ActionDelete, true
	}
	return "", false
}

// Composite is a predicate over several grant bits
type Composite string

const (
	// CompositeManage requires read and write
	CompositeManage Composite = "manage"
	// CompositeFull requires read, write and delete
	CompositeFull Composite = "full"
	// CompositeAccess requires read
	CompositeAccess Composite = "access"
)

// Actions returns the bits the composite requires, or nil when unknown
func (c Composite) Actions() []Action {
	switch c {
	case CompositeManage:
		return []Action{ActionRead, ActionWrite}
	case CompositeFull:
		return []Action{ActionRead, ActionWrite, ActionDelete}
	case CompositeAccess:
		return []Action{ActionRead}
	}
	return nil
}

// ParseComposite accepts composite names case-insensitively
func ParseComposite(s string) (Composite, bool) {
	c := Composite(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Actions() != nil
}

// MenuCode is the stable machine identifier of a console section.
// Codes are never renumbered or reused; new sections only add codes.
type MenuCode string

const (
	MenuDashboard            MenuCode = "DASHBOARD"
	MenuUserManagement       MenuCode = "USER_MANAGEMENT"
	MenuRoleManagement       MenuCode = "ROLE_MANAGEMENT"
	MenuMenuManagement       MenuCode = "MENU_MANAGEMENT"
	MenuPermissionManagement MenuCode = "PERMISSION_MANAGEMENT"
	MenuLogManagement        MenuCode = "LOG_MANAGEMENT"
	MenuMyProfile            MenuCode = "MY_PROFILE"
	MenuSystemManagement     MenuCode = "SYSTEM_MANAGEMENT"
	MenuSystemMonitoring     MenuCode = "SYSTEM_MONITORING"
	MenuAdvancedSearch       MenuCode = "ADVANCED_SEARCH"
)

// Catalog returns every known menu code in declaration order
func Catalog() []MenuCode {
	return []MenuCode{
		MenuDashboard,
		MenuUserManagement,
		MenuRoleManagement,
		MenuMenuManagement,
		MenuPermissionManagement,
		MenuLogManagement,
		MenuMyProfile,
		MenuSystemManagement,
		MenuSystemMonitoring,
		MenuAdvancedSearch,
	}
}

// User is an account that can hold roles
type User struct {
	ID                     int64      `json:"id"`
	Username               string     `json:"username"`
	PasswordHash           string     `json:"-"`
	Email                  string     `json:"email,omitempty"`
	FullName               string     `json:"full_name,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	IsActive               bool       `json:"is_active"`
	PasswordChangeRequired bool       `json:"password_change_required"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	LastLogin              *time.Time `json:"last_login,omitempty"`
}

// Role groups grants and is assigned to users
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"role_name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Menu is one node of the console navigation. Code is empty for menus that
// predate the menu_code column.
type Menu struct {
	ID          int64     `json:"id"`
	Code        MenuCode  `json:"menu_code,omitempty"`
	Name        string    `json:"menu_name"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	OrderNum    int       `json:"order_num"`
	IsVisible   bool      `json:"is_visible"`
	IsActive    bool      `json:"is_active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Children []*Menu `json:"children,omitempty"`
}

// Identifier is the code when present, otherwise the display name
func (m *Menu) Identifier() string {
	if m.Code != "" {
		return string(m.Code)
	}
	return m.Name
}

// Grant holds the independent read/write/delete bits of a role on a menu.
// Write does not imply read.
type Grant struct {
	ID        int64     `json:"id"`
	RoleID    int64     `json:"role_id"`
	MenuID    int64     `json:"menu_id"`
	CanRead   bool      `json:"can_read"`
	CanWrite  bool      `json:"can_write"`
	CanDelete bool      `json:"can_delete"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows reports whether the grant holds bit a
func (g *Grant) Allows(a Action) bool {
	switch a {
	case ActionRead:
		return g.CanRead
	case ActionWrite:
		return g.CanWrite
	case ActionDelete:
		return g.CanDelete
	}
	return false
}

// GrantDetail is a grant joined with its role and menu names
type GrantDetail struct {
	Grant
	RoleName string   `json:"role_name"`
	MenuName string   `json:"menu_name"`
	MenuCode MenuCode `json:"menu_code,omitempty"`
}

// CreateMenuRequest creates a menu. A nil OrderNum appends after the last sibling.
type CreateMenuRequest struct {
	Code        MenuCode `json:"menu_code"`
	Name        string   `json:"menu_name"`
	ParentID    *int64   `json:"parent_id"`
	URL         string   `json:"url"`
	Icon        string   `json:"icon"`
	OrderNum    *int     `json:"order_num"`
	IsVisible   *bool    `json:"is_visible"`
	IsActive    *bool    `json:"is_active"`
	Description string   `json:"description"`
}

// UpdateMenuRequest changes the non-nil fields of a menu
type UpdateMenuRequest struct {
	Code        *MenuCode `json:"menu_code"`
	Name        *string   `json:"menu_name"`
	ParentID    *int64    `json:"parent_id"`
	ClearParent bool      `json:"clear_parent"`
	URL         *string   `json:"url"`
	Icon        *string   `json:"icon"`
	OrderNum    *int      `json:"order_num"`
	IsVisible   *bool     `json:"is_visible"`
	IsActive    *bool     `json:"is_active"`
	Description *string   `json:"description"`
}

// CreateRoleRequest creates a role; IsActive defaults to true
type CreateRoleRequest struct {
	Name        string `json:"role_name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateRoleRequest changes the non-nil fields of a role
type UpdateRoleRequest struct {
	Name        *string `json:"role_name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// GrantRequest creates or replaces a grant. Unset bits default to
// read=true, write=false, delete=false.
type GrantRequest struct {
	RoleID    int64 `json:"role_id"`
	MenuID    int64 `json:"menu_id"`
	CanRead   *bool `json:"can_read"`
	CanWrite  *bool `json:"can_write"`
	CanDelete *bool `json:"can_delete"`
}

func (r GrantRequest) toGrant() Grant {
	g := Grant{RoleID: r.RoleID, MenuID: r.MenuID, CanRead: true}
	if r.CanRead != nil {
		g.CanRead = *r.CanRead
	}
	if r.CanWrite != nil {
		g.CanWrite = *r.CanWrite
	}
	if r.CanDelete != nil {
		g.CanDelete = *r.CanDelete
	}
	return g
}

// UpdateGrantRequest changes the non-nil bits of a grant
type UpdateGrantRequest struct {
	CanRead   *bool `json:"can_read"`
	CanWrite  *bool `json:"can_write"`
	CanDelete *bool `json:"can_delete"`
}

// Page is one page of a listing
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"total_pages"`
}

func newPage[T any](content []T, total int64, page, size int) Page[T] {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{Content: content, TotalElements: total, Page: page, Size: size, TotalPages: pages}
}
