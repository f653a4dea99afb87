package rbac

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTableLookup(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		name      string
		method    string
		path      string
		ok        bool
		menu      MenuCode
		action    Action
		composite Composite
		authOnly  bool
	}{
		{name: "get reads", method: http.MethodGet, path: "/api/menus", ok: true, menu: MenuMenuManagement, action: ActionRead},
		{name: "nested path", method: http.MethodDelete, path: "/api/menus/12", ok: true, menu: MenuMenuManagement, action: ActionDelete},
		{name: "trailing slash", method: http.MethodGet, path: "/api/users/", ok: true, menu: MenuUserManagement, action: ActionRead},
		{name: "patch writes", method: http.MethodPatch, path: "/api/logs/3", ok: true, menu: MenuLogManagement, action: ActionWrite},
		{name: "head reads", method: http.MethodHead, path: "/api/dashboard", ok: true, menu: MenuDashboard, action: ActionRead},
		{name: "role creation needs manage", method: http.MethodPost, path: "/api/roles", ok: true, menu: MenuRoleManagement, composite: CompositeManage},
		{name: "role update needs manage", method: http.MethodPut, path: "/api/roles/4/activate", ok: true, menu: MenuRoleManagement, composite: CompositeManage},
		{name: "role delete uses method", method: http.MethodDelete, path: "/api/roles/4", ok: true, menu: MenuRoleManagement, action: ActionDelete},
		{name: "longest prefix wins", method: http.MethodGet, path: "/api/auth/me/menus", ok: true, authOnly: true},
		{name: "shorter sibling", method: http.MethodGet, path: "/api/auth/me", ok: true, menu: MenuMyProfile, action: ActionRead},
		{name: "check endpoint", method: http.MethodGet, path: "/api/permissions/check", ok: true, authOnly: true},
		{name: "check endpoint any method", method: http.MethodPost, path: "/api/permissions/check", ok: true, authOnly: true},
		{name: "authenticated only ignores options", method: http.MethodOptions, path: "/api/auth/me/menus", ok: true, authOnly: true},
		{name: "permissions", method: http.MethodPost, path: "/api/permissions/batch", ok: true, menu: MenuPermissionManagement, action: ActionWrite},
		{name: "role-menus alias", method: http.MethodGet, path: "/api/role-menus/role/1", ok: true, menu: MenuPermissionManagement, action: ActionRead},
		{name: "segment boundary", method: http.MethodGet, path: "/api/menusx", ok: false},
		{name: "unmapped", method: http.MethodGet, path: "/api/unknown", ok: false},
		{name: "options has no action", method: http.MethodOptions, path: "/api/menus", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := table.Lookup(tt.method, tt.path)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.authOnly, req.Route.AuthenticatedOnly)
			assert.Equal(t, tt.menu, req.Route.Menu)
			assert.Equal(t, tt.action, req.Action)
			assert.Equal(t, tt.composite, req.Composite)
		})
	}
}

func TestNewRouteTableValidation(t *testing.T) {
	_, err := NewRouteTable([]Route{{Path: "api/menus", Menu: MenuMenuManagement}})
	assert.Error(t, err)

	_, err = NewRouteTable([]Route{{Path: "/api/menus"}})
	assert.Error(t, err)

	_, err = NewRouteTable([]Route{
		{Path: "/api/menus", Menu: MenuMenuManagement},
		{Path: "/api/menus/", Menu: MenuDashboard},
	})
	assert.Error(t, err)

	_, err = NewRouteTable([]Route{{Path: "/api/menus", Menu: MenuMenuManagement, Methods: map[string]Composite{"POST": "everything"}}})
	assert.Error(t, err)

	table, err := NewRouteTable([]Route{{Path: "/api/menus", Menu: MenuMenuManagement, Methods: map[string]Composite{"post": "FULL"}}})
	require.NoError(t, err)
	req, ok := table.Lookup("POST", "/api/menus")
	require.True(t, ok)
	assert.Equal(t, CompositeFull, req.Composite)
}

func TestLoadRouteTable(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "routes.yaml")
	content := `
routes:
  - path: /api/reports
    menu: DASHBOARD
    methods:
      DELETE: full
  - path: /api/ping
    authenticated_only: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadRouteTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Routes(), 2)

	req, ok := table.Lookup(http.MethodDelete, "/api/reports/9")
	require.True(t, ok)
	assert.Equal(t, MenuDashboard, req.Route.Menu)
	assert.Equal(t, CompositeFull, req.Composite)

	req, ok = table.Lookup(http.MethodGet, "/api/ping")
	require.True(t, ok)
	assert.True(t, req.Route.AuthenticatedOnly)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("routes: []\n"), 0o600))
	_, err = LoadRouteTable(empty)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("routes: [\n"), 0o600))
	_, err = LoadRouteTable(broken)
	assert.Error(t, err)

	_, err = LoadRouteTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultRoutesCoverCatalog(t *testing.T) {
	protected := make(map[MenuCode]bool)
	for _, r := range DefaultRoutes() {
		if !r.AuthenticatedOnly {
			protected[r.Menu] = true
		}
	}
	for code := range protected {
		assert.Contains(t, Catalog(), code)
	}
}
