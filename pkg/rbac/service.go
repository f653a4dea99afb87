package rbac

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinummonkey/menuguard/pkg/observability"
	"github.com/platinummonkey/menuguard/pkg/permcache"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxMenuDepth bounds the ancestor walk used to reject parent cycles
	maxMenuDepth = 64
)

// Service is the cache-aware CRUD layer over Store. Reads of listings and
// trees go through the cache; every write enforces its preconditions and
// then evicts the regions it affects. Permission decisions never pass
// through here, see Engine.
type Service struct {
	store  *Store
	cache  *permcache.Cache
	logger *observability.Logger
}

// NewService creates a service. cache may be nil to disable caching.
func NewService(store *Store, cache *permcache.Cache, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Store exposes the underlying store
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) invalidate(ctx context.Context, regions ...permcache.Region) {
	if err := s.cache.Invalidate(ctx, regions...); err != nil {
		// The local generation bump already happened, so this process
		// stays consistent; other replicas may serve stale listings until TTL.
		s.logger.WithError(err).Error("Failed to invalidate permission cache")
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// Menus

// ListMenus returns every menu in sibling order
func (s *Service) ListMenus(ctx context.Context) ([]*Menu, error) {
	return permcache.Load(ctx, s.cache, permcache.RegionMenus, "all", s.store.ListMenus)
}

// MenuTree returns the full menu forest
func (s *Service) MenuTree(ctx context.Context) ([]*Menu, error) {
	return permcache.Load(ctx, s.cache, permcache.RegionMenus, "tree", func(ctx context.Context) ([]*Menu, error) {
		flat, err := s.store.ListMenus(ctx)
		if err != nil {
			return nil, err
		}
		if orphans := OrphanMenus(flat); len(orphans) > 0 {
			ids := make([]string, len(orphans))
			for i, o := range orphans {
				ids[i] = strconv.FormatInt(o.ID, 10)
			}
			s.logger.WithField("menu_ids", strings.Join(ids, ",")).Warn("Menus unreachable from any root were left out of the tree")
		}
		return BuildTree(flat), nil
	})
}

// ListRootMenus returns the top-level menus
func (s *Service) ListRootMenus(ctx context.Context) ([]*Menu, error) {
	return s.store.ListRootMenus(ctx)
}

// ListChildMenus returns the direct children of a menu
func (s *Service) ListChildMenus(ctx context.Context, parentID int64) ([]*Menu, error) {
	return s.store.ListChildMenus(ctx, parentID)
}

// GetMenu returns a menu by id
func (s *Service) GetMenu(ctx context.Context, id int64) (*Menu, error) {
	return s.store.GetMenu(ctx, id)
}

// GetMenuByCode returns the menu carrying code
func (s *Service) GetMenuByCode(ctx context.Context, code MenuCode) (*Menu, error) {
	return s.store.GetMenuByCode(ctx, code)
}

// SearchMenus matches keyword against name, description and url
func (s *Service) SearchMenus(ctx context.Context, keyword string) ([]*Menu, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.ListMenus(ctx)
	}
	return s.store.SearchMenus(ctx, keyword)
}

// MenusPage returns one page of menus in sibling order with the total count
func (s *Service) MenusPage(ctx context.Context, page, size int) (Page[*Menu], error) {
	page, size = normalizePage(page, size)
	menus, total, err := s.store.ListMenusPage(ctx, page, size)
	if err != nil {
		return Page[*Menu]{}, err
	}
	return newPage(menus, total, page, size), nil
}

// CountMenus returns the number of menus
func (s *Service) CountMenus(ctx context.Context) (int64, error) {
	return s.store.CountMenus(ctx)
}

// CreateMenu validates req and inserts the menu. Without an explicit order
// the menu goes after its last sibling.
func (s *Service) CreateMenu(ctx context.Context, req CreateMenuRequest) (*Menu, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("menu name is required")
	}
	if req.ParentID != nil {
		if _, err := s.store.GetMenu(ctx, *req.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("parent menu %d does not exist", *req.ParentID)
			}
			return nil, err
		}
	}

	m := &Menu{
		Code:        MenuCode(strings.TrimSpace(string(req.Code))),
		Name:        name,
		ParentID:    req.ParentID,
		URL:         req.URL,
		Icon:        req.Icon,
		IsVisible:   true,
		IsActive:    true,
		Description: req.Description,
	}
	if req.IsVisible != nil {
		m.IsVisible = *req.IsVisible
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.OrderNum != nil {
		m.OrderNum = *req.OrderNum
	} else {
		next, err := s.store.NextOrderNum(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		m.OrderNum = next
	}

	if m.Code != "" {
		if _, err := s.store.GetMenuByCode(ctx, m.Code); err == nil {
			return nil, conflict("menu code %s already exists", m.Code)
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	if err := s.store.CreateMenu(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionMenus, permcache.RegionUserMenus)
	return m, nil
}

// UpdateMenu applies the non-nil fields of req. Moving a menu under itself
// or one of its descendants is rejected.
func (s *Service) UpdateMenu(ctx context.Context, id int64, req UpdateMenuRequest) (*Menu, error) {
	m, err := s.store.GetMenu(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("menu name is required")
		}
		m.Name = name
	}
	if req.Code != nil {
		code := MenuCode(strings.TrimSpace(string(*req.Code)))
		if code != "" && code != m.Code {
			if other, err := s.store.GetMenuByCode(ctx, code); err == nil && other.ID != id {
				return nil, conflict("menu code %s already exists", code)
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		m.Code = code
	}
	switch {
	case req.ClearParent:
		m.ParentID = nil
	case req.ParentID != nil:
		if err := s.checkParent(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
		parent := *req.ParentID
		m.ParentID = &parent
	}
	if req.URL != nil {
		m.URL = *req.URL
	}
	if req.Icon != nil {
		m.Icon = *req.Icon
	}
	if req.OrderNum != nil {
		m.OrderNum = *req.OrderNum
	}
	if req.IsVisible != nil {
		m.IsVisible = *req.IsVisible
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.Description != nil {
		m.Description = *req.Description
	}

	if err := s.store.UpdateMenu(ctx, m); err != nil {
		return nil, err
	}
	// grant details carry the menu code and name
	s.invalidate(ctx, permcache.RegionMenus, permcache.RegionUserMenus, permcache.RegionRolePermissions)
	return m, nil
}

// checkParent rejects parentID when it is missing or would create a cycle
func (s *Service) checkParent(ctx context.Context, id, parentID int64) error {
	if parentID == id {
		return invalid("menu %d cannot be its own parent", id)
	}
	current := parentID
	for depth := 0; depth < maxMenuDepth; depth++ {
		m, err := s.store.GetMenu(ctx, current)
		if errors.Is(err, ErrNotFound) {
			if current == parentID {
				return invalid("parent menu %d does not exist", parentID)
			}
			return nil
		}
		if err != nil {
			return err
		}
		if m.ParentID == nil {
			return nil
		}
		if *m.ParentID == id {
			return invalid("menu %d cannot move under its descendant %d", id, parentID)
		}
		current = *m.ParentID
	}
	return invalid("menu hierarchy deeper than %d levels", maxMenuDepth)
}

// DeleteMenu removes a leaf menu; its grants go with it through the
// role_menus foreign key cascade. Menus with children are a conflict.
func (s *Service) DeleteMenu(ctx context.Context, id int64) error {
	if _, err := s.store.GetMenu(ctx, id); err != nil {
		return err
	}
	children, err := s.store.CountChildMenus(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return conflict("menu %d has %d child menus", id, children)
	}
	if err := s.store.DeleteMenu(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionMenus, permcache.RegionUserMenus, permcache.RegionRolePermissions)
	return nil
}

// UpdateMenuOrder moves a menu among its siblings
func (s *Service) UpdateMenuOrder(ctx context.Context, id int64, order int) error {
	if err := s.store.UpdateMenuOrder(ctx, id, order); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionMenus, permcache.RegionUserMenus)
	return nil
}

// SetMenuVisibility shows or hides a menu in navigation
func (s *Service) SetMenuVisibility(ctx context.Context, id int64, visible bool) error {
	if err := s.store.SetMenuVisibility(ctx, id, visible); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionMenus, permcache.RegionUserMenus)
	return nil
}

// UserMenuTree returns the navigation tree of the menus userID can read.
// Ancestors are not added implicitly: a readable child under an unreadable
// parent is left out.
func (s *Service) UserMenuTree(ctx context.Context, userID int64) ([]*Menu, error) {
	key := strconv.FormatInt(userID, 10)
	return permcache.Load(ctx, s.cache, permcache.RegionUserMenus, key, func(ctx context.Context) ([]*Menu, error) {
		flat, err := s.store.ListReadableMenus(ctx, userID)
		if err != nil {
			return nil, err
		}
		return BuildTree(flat), nil
	})
}

// Roles

// ListRoles returns every role
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return permcache.Load(ctx, s.cache, permcache.RegionRoles, "all", s.store.ListRoles)
}

// ListRolesByActive returns the active or the inactive roles
func (s *Service) ListRolesByActive(ctx context.Context, active bool) ([]*Role, error) {
	key := "inactive"
	if active {
		key = "active"
	}
	return permcache.Load(ctx, s.cache, permcache.RegionRoles, key, func(ctx context.Context) ([]*Role, error) {
		return s.store.ListRolesByActive(ctx, active)
	})
}

// RolesPage returns one page of roles with the total count
func (s *Service) RolesPage(ctx context.Context, page, size int) (Page[*Role], error) {
	page, size = normalizePage(page, size)
	roles, total, err := s.store.ListRolesPage(ctx, page, size)
	if err != nil {
		return Page[*Role]{}, err
	}
	return newPage(roles, total, page, size), nil
}

// GetRole returns a role by id
func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.store.GetRole(ctx, id)
}

// GetRoleByName returns a role by its unique name
func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.store.GetRoleByName(ctx, name)
}

// RolesByUser returns every role assigned to a user, including inactive ones
func (s *Service) RolesByUser(ctx context.Context, userID int64) ([]*Role, error) {
	return s.store.ListRolesByUserID(ctx, userID)
}

// CountRoles returns the number of roles
func (s *Service) CountRoles(ctx context.Context) (int64, error) {
	return s.store.CountRoles(ctx)
}

// RoleExists reports whether a role with the given name exists
func (s *Service) RoleExists(ctx context.Context, name string) (bool, error) {
	_, err := s.store.GetRoleByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateRole inserts a role; a taken name is a conflict
func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("role name is required")
	}
	exists, err := s.RoleExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("role %s already exists", name)
	}

	r := &Role{Name: name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionRoles)
	return r, nil
}

// UpdateRole applies the non-nil fields of req; renaming onto another
// role's name is a conflict
func (s *Service) UpdateRole(ctx context.Context, id int64, req UpdateRoleRequest) (*Role, error) {
	r, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("role name is required")
		}
		if name != r.Name {
			exists, err := s.RoleExists(ctx, name)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, conflict("role %s already exists", name)
			}
		}
		r.Name = name
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	activeChanged := false
	if req.IsActive != nil && *req.IsActive != r.IsActive {
		r.IsActive = *req.IsActive
		activeChanged = true
	}

	if err := s.store.UpdateRole(ctx, r); err != nil {
		return nil, err
	}
	if activeChanged {
		s.invalidate(ctx, permcache.RegionRoles, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	} else {
		s.invalidate(ctx, permcache.RegionRoles, permcache.RegionRolePermissions)
	}
	return r, nil
}

// SetRoleActive activates or deactivates a role. Inactive roles grant nothing.
func (s *Service) SetRoleActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetRoleActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionRoles, permcache.RegionUserMenus)
	return nil
}

// DeleteRole removes a role; its grants cascade with it. A role still
// assigned to users is a conflict.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if _, err := s.store.GetRole(ctx, id); err != nil {
		return err
	}
	users, err := s.store.CountUsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return conflict("role %d is assigned to %d users", id, users)
	}
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionRoles, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return nil
}

// AssignRole gives a user a role; holding it already is a conflict
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return err
	}
	has, err := s.store.HasRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if has {
		return conflict("user %d already has role %d", userID, roleID)
	}
	if err := s.store.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionUserMenus)
	return nil
}

// RemoveRole takes a role from a user; an absent assignment is NotFound
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.store.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionUserMenus)
	return nil
}

// UserIDsByRole returns the ids of the users holding a role
func (s *Service) UserIDsByRole(ctx context.Context, roleID int64) ([]int64, error) {
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.UserIDsByRole(ctx, roleID)
}

// Grants

// ListGrants returns every grant
func (s *Service) ListGrants(ctx context.Context) ([]*Grant, error) {
	return s.store.ListGrants(ctx)
}

// GrantsPage returns one page of grants with the total count
func (s *Service) GrantsPage(ctx context.Context, page, size int) (Page[*Grant], error) {
	page, size = normalizePage(page, size)
	grants, total, err := s.store.ListGrantsPage(ctx, page, size)
	if err != nil {
		return Page[*Grant]{}, err
	}
	return newPage(grants, total, page, size), nil
}

// CountGrants returns the number of grants
func (s *Service) CountGrants(ctx context.Context) (int64, error) {
	return s.store.CountGrants(ctx)
}

// GetGrant returns a grant by id
func (s *Service) GetGrant(ctx context.Context, id int64) (*Grant, error) {
	return s.store.GetGrant(ctx, id)
}

// GrantsByRole returns the grants of a role with menu names, cached per role
func (s *Service) GrantsByRole(ctx context.Context, roleID int64) ([]*GrantDetail, error) {
	key := strconv.FormatInt(roleID, 10)
	return permcache.Load(ctx, s.cache, permcache.RegionRolePermissions, key, func(ctx context.Context) ([]*GrantDetail, error) {
		return s.store.GrantsByRole(ctx, roleID)
	})
}

// GrantsByMenu returns the grants on a menu with role names
func (s *Service) GrantsByMenu(ctx context.Context, menuID int64) ([]*GrantDetail, error) {
	return s.store.GrantsByMenu(ctx, menuID)
}

// GrantsByUser returns the grants of every active role the user holds
func (s *Service) GrantsByUser(ctx context.Context, userID int64) ([]*GrantDetail, error) {
	return s.store.GrantsByUser(ctx, userID)
}

// MenuIDsByRole returns the ids of the menus a role has grants on
func (s *Service) MenuIDsByRole(ctx context.Context, roleID int64) ([]int64, error) {
	return s.store.MenuIDsByRole(ctx, roleID)
}

// RoleIDsByMenu returns the ids of the roles with grants on a menu
func (s *Service) RoleIDsByMenu(ctx context.Context, menuID int64) ([]int64, error) {
	return s.store.RoleIDsByMenu(ctx, menuID)
}

// GrantExists reports whether a role has a grant on a menu
func (s *Service) GrantExists(ctx context.Context, roleID, menuID int64) (bool, error) {
	return s.store.GrantExists(ctx, roleID, menuID)
}

// checkGrantTarget reports NotFound when the role or menu of g is missing
func (s *Service) checkGrantTarget(ctx context.Context, g Grant) error {
	if _, err := s.store.GetRole(ctx, g.RoleID); err != nil {
		return err
	}
	if _, err := s.store.GetMenu(ctx, g.MenuID); err != nil {
		return err
	}
	return nil
}

// CreateGrant inserts a grant. A second grant for the same role and menu is
// a conflict and leaves the first untouched.
func (s *Service) CreateGrant(ctx context.Context, req GrantRequest) (*Grant, error) {
	g := req.toGrant()
	if err := s.checkGrantTarget(ctx, g); err != nil {
		return nil, err
	}
	exists, err := s.store.GrantExists(ctx, g.RoleID, g.MenuID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("role %d already has a grant on menu %d", g.RoleID, g.MenuID)
	}
	if err := s.store.CreateGrant(ctx, &g); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return &g, nil
}

// CreateGrants inserts several grants atomically with the same checks as
// CreateGrant, including duplicates within the batch itself
func (s *Service) CreateGrants(ctx context.Context, reqs []GrantRequest) ([]*Grant, error) {
	if len(reqs) == 0 {
		return nil, invalid("at least one grant is required")
	}
	type pair struct{ role, menu int64 }
	seen := make(map[pair]bool, len(reqs))
	grants := make([]*Grant, 0, len(reqs))
	for _, req := range reqs {
		g := req.toGrant()
		key := pair{g.RoleID, g.MenuID}
		if seen[key] {
			return nil, conflict("duplicate grant for role %d on menu %d in batch", g.RoleID, g.MenuID)
		}
		seen[key] = true

		if err := s.checkGrantTarget(ctx, g); err != nil {
			return nil, err
		}
		exists, err := s.store.GrantExists(ctx, g.RoleID, g.MenuID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, conflict("role %d already has a grant on menu %d", g.RoleID, g.MenuID)
		}
		grants = append(grants, &g)
	}

	if err := s.store.CreateGrants(ctx, grants); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return grants, nil
}

// UpdateGrant changes the non-nil bits of a grant
func (s *Service) UpdateGrant(ctx context.Context, id int64, req UpdateGrantRequest) (*Grant, error) {
	g, err := s.store.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CanRead != nil {
		g.CanRead = *req.CanRead
	}
	if req.CanWrite != nil {
		g.CanWrite = *req.CanWrite
	}
	if req.CanDelete != nil {
		g.CanDelete = *req.CanDelete
	}
	if err := s.store.UpdateGrant(ctx, g); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return g, nil
}

// ReplaceRoleGrants swaps every grant of a role for reqs in one transaction.
// The role id of each request is ignored.
func (s *Service) ReplaceRoleGrants(ctx context.Context, roleID int64, reqs []GrantRequest) ([]*Grant, error) {
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(reqs))
	grants := make([]*Grant, 0, len(reqs))
	for _, req := range reqs {
		g := req.toGrant()
		g.RoleID = roleID
		if seen[g.MenuID] {
			return nil, conflict("duplicate grant for menu %d", g.MenuID)
		}
		seen[g.MenuID] = true
		if _, err := s.store.GetMenu(ctx, g.MenuID); err != nil {
			return nil, err
		}
		grants = append(grants, &g)
	}

	if err := s.store.ReplaceRoleGrants(ctx, roleID, grants); err != nil {
		return nil, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return grants, nil
}

// DeleteGrant removes a grant by id
func (s *Service) DeleteGrant(ctx context.Context, id int64) error {
	if err := s.store.DeleteGrant(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return nil
}

// DeleteGrantByRoleAndMenu removes the grant a role holds on a menu
func (s *Service) DeleteGrantByRoleAndMenu(ctx context.Context, roleID, menuID int64) error {
	if err := s.store.DeleteGrantByRoleAndMenu(ctx, roleID, menuID); err != nil {
		return err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return nil
}

// DeleteGrantsByRole removes every grant of a role and returns the count
func (s *Service) DeleteGrantsByRole(ctx context.Context, roleID int64) (int64, error) {
	n, err := s.store.DeleteGrantsByRole(ctx, roleID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return n, nil
}

// DeleteGrantsByMenu removes every grant on a menu and returns the count
func (s *Service) DeleteGrantsByMenu(ctx context.Context, menuID int64) (int64, error) {
	n, err := s.store.DeleteGrantsByMenu(ctx, menuID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, permcache.RegionRolePermissions, permcache.RegionUserMenus)
	return n, nil
}
