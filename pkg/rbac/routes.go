package rbac

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route maps an API path prefix onto the menu whose grants protect it
type Route struct {
	// Path is matched exactly first, then as a prefix on a segment boundary
	Path string `yaml:"path"`
	// Menu is the protecting menu code; empty for AuthenticatedOnly routes
	Menu MenuCode `yaml:"menu,omitempty"`
	// Methods optionally overrides the method-derived action with a
	// composite, e.g. {"POST": "manage"}
	Methods map[string]Composite `yaml:"methods,omitempty"`
	// AuthenticatedOnly routes need a principal but no grant
	AuthenticatedOnly bool `yaml:"authenticated_only,omitempty"`
}

// Requirement is what a request must satisfy to reach its handler
type Requirement struct {
	Route     Route
	Action    Action
	Composite Composite
}

// RouteTable resolves request paths to requirements. It is built once and
// never mutated, so it is safe for concurrent use.
type RouteTable struct {
	exact    map[string]Route
	prefixes []Route
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// NewRouteTable validates routes and builds a table
func NewRouteTable(routes []Route) (*RouteTable, error) {
	t := &RouteTable{exact: make(map[string]Route, len(routes))}
	for i, r := range routes {
		r.Path = strings.TrimRight(strings.TrimSpace(r.Path), "/")
		if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %d: path must start with /", i)
		}
		if !r.AuthenticatedOnly && r.Menu == "" {
			return nil, fmt.Errorf("route %s: menu is required", r.Path)
		}
		if _, dup := t.exact[r.Path]; dup {
			return nil, fmt.Errorf("route %s: duplicate path", r.Path)
		}
		normalized := make(map[string]Composite, len(r.Methods))
		for method, kind := range r.Methods {
			parsed, ok := ParseComposite(string(kind))
			if !ok {
				return nil, fmt.Errorf("route %s: unknown composite %q for %s", r.Path, kind, method)
			}
			normalized[strings.ToUpper(method)] = parsed
		}
		r.Methods = normalized
		t.exact[r.Path] = r
		t.prefixes = append(t.prefixes, r)
	}
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Path) > len(t.prefixes[j].Path)
	})
	return t, nil
}

// LoadRouteTable reads a YAML route file of the form
//
//	routes:
//	  - path: /api/menus
//	    menu: MENU_MANAGEMENT
func LoadRouteTable(path string) (*RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, fmt.Errorf("route table %s has no routes", path)
	}
	return NewRouteTable(file.Routes)
}

// DefaultRoutes is the built-in API path to menu mapping
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/api/dashboard", Menu: MenuDashboard},
		{Path: "/api/users", Menu: MenuUserManagement},
		{Path: "/api/roles", Menu: MenuRoleManagement, Methods: map[string]Composite{
			http.MethodPost: CompositeManage,
			http.MethodPut:  CompositeManage,
		}},
		{Path: "/api/menus", Menu: MenuMenuManagement},
		{Path: "/api/permissions", Menu: MenuPermissionManagement},
		{Path: "/api/permissions/check", AuthenticatedOnly: true},
		{Path: "/api/role-menus", Menu: MenuPermissionManagement},
		{Path: "/api/logs", Menu: MenuLogManagement},
		{Path: "/api/monitoring", Menu: MenuSystemMonitoring},
		{Path: "/api/search", Menu: MenuAdvancedSearch},
		{Path: "/api/auth/profile", Menu: MenuMyProfile},
		{Path: "/api/auth/me", Menu: MenuMyProfile},
		{Path: "/api/auth/me/menus", AuthenticatedOnly: true},
		{Path: "/api/auth/password", Menu: MenuMyProfile},
		{Path: "/api/auth/force-change-password", Menu: MenuMyProfile},
	}
}

// DefaultRouteTable builds the table from DefaultRoutes
func DefaultRouteTable() *RouteTable {
	t, err := NewRouteTable(DefaultRoutes())
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the table entries, longest path first
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.prefixes))
	copy(out, t.prefixes)
	return out
}

// Match returns the route for path: the exact entry when present, otherwise
// the longest entry that is a prefix of path on a segment boundary
func (t *RouteTable) Match(path string) (Route, bool) {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if r, ok := t.exact[path]; ok {
		return r, true
	}
	for _, r := range t.prefixes {
		if strings.HasPrefix(path, r.Path+"/") {
			return r, true
		}
	}
	return Route{}, false
}

// Lookup resolves method and path to a requirement. ok is false for
// unmapped paths and for methods that map to no action. AuthenticatedOnly
// routes match every method and carry neither an action nor a composite.
func (t *RouteTable) Lookup(method, path string) (Requirement, bool) {
	r, ok := t.Match(path)
	if !ok {
		return Requirement{}, false
	}
	req := Requirement{Route: r}
	if r.AuthenticatedOnly {
		return req, true
	}
	if kind, ok := r.Methods[strings.ToUpper(method)]; ok {
		req.Composite = kind
		return req, true
	}
	action, ok := ActionForMethod(strings.ToUpper(method))
	if !ok {
		return Requirement{}, false
	}
	req.Action = action
	return req, true
}
