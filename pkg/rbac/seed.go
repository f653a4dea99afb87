package rbac

import (
	"context"
	"errors"
	"fmt"
)

type seedMenu struct {
	code   MenuCode
	name   string
	url    string
	icon   string
	parent MenuCode
}

// Seed catalog in sibling order. Parents precede their children.
var seedMenus = []seedMenu{
	{code: MenuDashboard, name: "대시보드", url: "/dashboard", icon: "DashboardOutlined"},
	{code: MenuSystemManagement, name: "시스템 관리", url: "/admin", icon: "SettingOutlined"},
	{code: MenuUserManagement, name: "회원 관리", url: "/admin/users", icon: "UserOutlined", parent: MenuSystemManagement},
	{code: MenuRoleManagement, name: "역할 관리", url: "/admin/roles", icon: "TeamOutlined", parent: MenuSystemManagement},
	{code: MenuMenuManagement, name: "메뉴 관리", url: "/admin/menus", icon: "MenuOutlined", parent: MenuSystemManagement},
	{code: MenuPermissionManagement, name: "권한 관리", url: "/admin/permissions", icon: "SafetyOutlined", parent: MenuSystemManagement},
	{code: MenuLogManagement, name: "로그 관리", url: "/admin/logs", icon: "FileTextOutlined", parent: MenuSystemManagement},
	{code: MenuSystemMonitoring, name: "시스템 모니터링", url: "/monitoring", icon: "MonitorOutlined"},
	{code: MenuAdvancedSearch, name: "고급 검색", url: "/search", icon: "SearchOutlined"},
	{code: MenuMyProfile, name: "내 정보", url: "/profile", icon: "IdcardOutlined"},
}

const (
	// AdminRoleName holds every bit on every catalog menu after seeding
	AdminRoleName = "ADMIN"
	// UserRoleName can read the dashboard and manage its own profile
	UserRoleName = "USER"
)

// SeedOptions controls bootstrap data
type SeedOptions struct {
	// AdminUsername, when set, is created if missing and given the ADMIN role
	AdminUsername string
}

// SeedResult reports what Seed created
type SeedResult struct {
	Menus  int
	Roles  int
	Grants int
	Users  int
}

// Seed creates the menu catalog with ADMIN and USER roles when no menus
// exist yet. Running it again is a no-op apart from the admin user.
func Seed(ctx context.Context, store *Store, opts SeedOptions) (SeedResult, error) {
	var result SeedResult

	count, err := store.CountMenus(ctx)
	if err != nil {
		return result, err
	}
	if count == 0 {
		if err := seedCatalog(ctx, store, &result); err != nil {
			return result, err
		}
	}

	if opts.AdminUsername != "" {
		if err := seedAdminUser(ctx, store, opts.AdminUsername, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func seedCatalog(ctx context.Context, store *Store, result *SeedResult) error {
	ids := make(map[MenuCode]int64, len(seedMenus))
	order := make(map[MenuCode]int)

	for _, sm := range seedMenus {
		order[sm.parent]++
		m := &Menu{
			Code:      sm.code,
			Name:      sm.name,
			URL:       sm.url,
			Icon:      sm.icon,
			OrderNum:  order[sm.parent],
			IsVisible: true,
			IsActive:  true,
		}
		if sm.parent != "" {
			parentID := ids[sm.parent]
			m.ParentID = &parentID
		}
		if err := store.CreateMenu(ctx, m); err != nil {
			return fmt.Errorf("failed to seed menu %s: %w", sm.code, err)
		}
		ids[sm.code] = m.ID
		result.Menus++
	}

	admin, err := ensureRole(ctx, store, AdminRoleName, "Full access to every console menu", result)
	if err != nil {
		return err
	}
	user, err := ensureRole(ctx, store, UserRoleName, "Dashboard and own profile", result)
	if err != nil {
		return err
	}

	grants := make([]*Grant, 0, len(seedMenus))
	for _, sm := range seedMenus {
		grants = append(grants, &Grant{MenuID: ids[sm.code], CanRead: true, CanWrite: true, CanDelete: true})
	}
	if err := store.ReplaceRoleGrants(ctx, admin.ID, grants); err != nil {
		return fmt.Errorf("failed to seed admin grants: %w", err)
	}
	result.Grants += len(grants)

	userGrants := []*Grant{
		{MenuID: ids[MenuDashboard], CanRead: true},
		{MenuID: ids[MenuMyProfile], CanRead: true, CanWrite: true},
	}
	if err := store.ReplaceRoleGrants(ctx, user.ID, userGrants); err != nil {
		return fmt.Errorf("failed to seed user grants: %w", err)
	}
	result.Grants += len(userGrants)
	return nil
}

func ensureRole(ctx context.Context, store *Store, name, description string, result *SeedResult) (*Role, error) {
	role, err := store.GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	role = &Role{Name: name, Description: description, IsActive: true}
	if err := store.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to seed role %s: %w", name, err)
	}
	result.Roles++
	return role, nil
}

func seedAdminUser(ctx context.Context, store *Store, username string, result *SeedResult) error {
	admin, err := ensureRole(ctx, store, AdminRoleName, "Full access to every console menu", result)
	if err != nil {
		return err
	}

	user, err := store.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		user = &User{Username: username, IsActive: true, PasswordChangeRequired: true}
		if err := store.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		result.Users++
	} else if err != nil {
		return err
	}

	has, err := store.HasRole(ctx, user.ID, admin.ID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return store.AssignRole(ctx, user.ID, admin.ID)
}
