package rbac

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/menuguard/pkg/httputil"
	"github.com/platinummonkey/menuguard/pkg/middleware"
)

// Handlers serves the menu, role and grant endpoints
type Handlers struct {
	service *Service
	engine  *Engine
}

// NewHandlers creates RBAC handlers
func NewHandlers(service *Service, engine *Engine) *Handlers {
	return &Handlers{service: service, engine: engine}
}

// RegisterRoutes registers every RBAC route on router. Grants are served
// under both /api/permissions and /api/role-menus.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Menus
	router.HandleFunc("/api/menus", h.listMenus).Methods("GET")
	router.HandleFunc("/api/menus", h.createMenu).Methods("POST")
	router.HandleFunc("/api/menus/tree", h.menuTree).Methods("GET")
	router.HandleFunc("/api/menus/root", h.rootMenus).Methods("GET")
	router.HandleFunc("/api/menus/search", h.searchMenus).Methods("GET")
	router.HandleFunc("/api/menus/page", h.menusPage).Methods("GET")
	router.HandleFunc("/api/menus/count", h.countMenus).Methods("GET")
	router.HandleFunc("/api/menus/children/{parentId:[0-9]+}", h.childMenus).Methods("GET")
	router.HandleFunc("/api/menus/code/{code}", h.menuByCode).Methods("GET")
	router.HandleFunc("/api/menus/{id:[0-9]+}", h.getMenu).Methods("GET")
	router.HandleFunc("/api/menus/{id:[0-9]+}", h.updateMenu).Methods("PUT")
	router.HandleFunc("/api/menus/{id:[0-9]+}", h.deleteMenu).Methods("DELETE")
	router.HandleFunc("/api/menus/{id:[0-9]+}/order", h.updateMenuOrder).Methods("PUT")
	router.HandleFunc("/api/menus/{id:[0-9]+}/visibility", h.setMenuVisibility).Methods("PUT")

	// Roles
	router.HandleFunc("/api/roles", h.listRoles).Methods("GET")
	router.HandleFunc("/api/roles", h.createRole).Methods("POST")
	router.HandleFunc("/api/roles/active", h.listActiveRoles).Methods("GET")
	router.HandleFunc("/api/roles/inactive", h.listInactiveRoles).Methods("GET")
	router.HandleFunc("/api/roles/page", h.rolesPage).Methods("GET")
	router.HandleFunc("/api/roles/count", h.countRoles).Methods("GET")
	router.HandleFunc("/api/roles/exists", h.roleExists).Methods("GET")
	router.HandleFunc("/api/roles/name/{name}", h.roleByName).Methods("GET")
	router.HandleFunc("/api/roles/user/{userId:[0-9]+}", h.rolesByUser).Methods("GET")
	router.HandleFunc("/api/roles/{id:[0-9]+}", h.getRole).Methods("GET")
	router.HandleFunc("/api/roles/{id:[0-9]+}", h.updateRole).Methods("PUT")
	router.HandleFunc("/api/roles/{id:[0-9]+}", h.deleteRole).Methods("DELETE")
	router.HandleFunc("/api/roles/{id:[0-9]+}/activate", h.activateRole).Methods("PUT")
	router.HandleFunc("/api/roles/{id:[0-9]+}/deactivate", h.deactivateRole).Methods("PUT")
	router.HandleFunc("/api/roles/{roleId:[0-9]+}/users", h.roleUsers).Methods("GET")
	router.HandleFunc("/api/roles/{roleId:[0-9]+}/assign-user/{userId:[0-9]+}", h.assignRole).Methods("POST")
	router.HandleFunc("/api/roles/{roleId:[0-9]+}/remove-user/{userId:[0-9]+}", h.removeRole).Methods("DELETE")

	// Grants
	router.HandleFunc("/api/permissions/check", h.checkPermission).Methods("GET")
	for _, base := range []string{"/api/permissions", "/api/role-menus"} {
		router.HandleFunc(base, h.listGrants).Methods("GET")
		router.HandleFunc(base, h.createGrant).Methods("POST")
		router.HandleFunc(base+"/batch", h.createGrants).Methods("POST")
		router.HandleFunc(base+"/page", h.grantsPage).Methods("GET")
		router.HandleFunc(base+"/count", h.countGrants).Methods("GET")
		router.HandleFunc(base+"/exists", h.grantExists).Methods("GET")
		router.HandleFunc(base+"/{id:[0-9]+}", h.getGrant).Methods("GET")
		router.HandleFunc(base+"/{id:[0-9]+}", h.updateGrant).Methods("PUT")
		router.HandleFunc(base+"/{id:[0-9]+}", h.deleteGrant).Methods("DELETE")
		router.HandleFunc(base+"/role/{roleId:[0-9]+}", h.grantsByRole).Methods("GET")
		router.HandleFunc(base+"/role/{roleId:[0-9]+}", h.deleteGrantsByRole).Methods("DELETE")
		router.HandleFunc(base+"/role/{roleId:[0-9]+}/batch", h.replaceRoleGrants).Methods("PUT")
		router.HandleFunc(base+"/role/{roleId:[0-9]+}/menus", h.menuIDsByRole).Methods("GET")
		router.HandleFunc(base+"/role/{roleId:[0-9]+}/menu/{menuId:[0-9]+}", h.deleteGrantByRoleAndMenu).Methods("DELETE")
		router.HandleFunc(base+"/menu/{menuId:[0-9]+}", h.grantsByMenu).Methods("GET")
		router.HandleFunc(base+"/menu/{menuId:[0-9]+}", h.deleteGrantsByMenu).Methods("DELETE")
		router.HandleFunc(base+"/menu/{menuId:[0-9]+}/roles", h.roleIDsByMenu).Methods("GET")
		router.HandleFunc(base+"/user/{userId:[0-9]+}", h.grantsByUser).Methods("GET")
	}

	// Current principal
	router.HandleFunc("/api/auth/me/menus", h.myMenus).Methods("GET")
}

// writeServiceError maps service errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, ErrConflict):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, ErrInvalidInput):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, r, err)
	}
}

func pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, err := httputil.ParseQueryInt(r, "page", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return 0, 0, false
	}
	size, err := httputil.ParseQueryInt(r, "size", defaultPageSize)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return 0, 0, false
	}
	return page, size, true
}

func respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, data)
}

// Menus

func (h *Handlers) listMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.ListMenus(r.Context())
	respond(w, r, menus, err)
}

func (h *Handlers) menuTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.MenuTree(r.Context())
	respond(w, r, tree, err)
}

func (h *Handlers) rootMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.ListRootMenus(r.Context())
	respond(w, r, menus, err)
}

func (h *Handlers) searchMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.SearchMenus(r.Context(), httputil.ParseQueryString(r, "keyword", ""))
	respond(w, r, menus, err)
}

func (h *Handlers) menusPage(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.MenusPage(r.Context(), page, size)
	respond(w, r, result, err)
}

func (h *Handlers) countMenus(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountMenus(r.Context())
	respond(w, r, map[string]int64{"count": n}, err)
}

func (h *Handlers) childMenus(w http.ResponseWriter, r *http.Request) {
	parentID, ok := httputil.ParsePathInt64OrError(w, r, "parentId")
	if !ok {
		return
	}
	menus, err := h.service.ListChildMenus(r.Context(), parentID)
	respond(w, r, menus, err)
}

func (h *Handlers) menuByCode(w http.ResponseWriter, r *http.Request) {
	code, err := httputil.ParsePathString(r, "code")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	menu, err := h.service.GetMenuByCode(r.Context(), MenuCode(code))
	respond(w, r, menu, err)
}

func (h *Handlers) getMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	menu, err := h.service.GetMenu(r.Context(), id)
	respond(w, r, menu, err)
}

func (h *Handlers) createMenu(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	menu, err := h.service.CreateMenu(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, menu)
}

func (h *Handlers) updateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateMenuRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	menu, err := h.service.UpdateMenu(r.Context(), id, req)
	respond(w, r, menu, err)
}

func (h *Handlers) deleteMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteMenu(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) updateMenuOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		OrderNum *int `json:"order_num"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.OrderNum == nil {
		httputil.WriteBadRequest(w, "order_num is required")
		return
	}
	if err := h.service.UpdateMenuOrder(r.Context(), id, *req.OrderNum); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) setMenuVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		IsVisible *bool `json:"is_visible"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.IsVisible == nil {
		httputil.WriteBadRequest(w, "is_visible is required")
		return
	}
	if err := h.service.SetMenuVisibility(r.Context(), id, *req.IsVisible); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Roles

func (h *Handlers) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	respond(w, r, roles, err)
}

func (h *Handlers) listActiveRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRolesByActive(r.Context(), true)
	respond(w, r, roles, err)
}

func (h *Handlers) listInactiveRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRolesByActive(r.Context(), false)
	respond(w, r, roles, err)
}

func (h *Handlers) rolesPage(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.RolesPage(r.Context(), page, size)
	respond(w, r, result, err)
}

func (h *Handlers) countRoles(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountRoles(r.Context())
	respond(w, r, map[string]int64{"count": n}, err)
}

func (h *Handlers) roleExists(w http.ResponseWriter, r *http.Request) {
	name := httputil.ParseQueryString(r, "name", "")
	if name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	exists, err := h.service.RoleExists(r.Context(), name)
	respond(w, r, map[string]bool{"exists": exists}, err)
}

func (h *Handlers) roleByName(w http.ResponseWriter, r *http.Request) {
	name, err := httputil.ParsePathString(r, "name")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	role, err := h.service.GetRoleByName(r.Context(), name)
	respond(w, r, role, err)
}

func (h *Handlers) rolesByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	roles, err := h.service.RolesByUser(r.Context(), userID)
	respond(w, r, roles, err)
}

func (h *Handlers) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	respond(w, r, role, err)
}

func (h *Handlers) createRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, role)
}

func (h *Handlers) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, req)
	respond(w, r, role, err)
}

func (h *Handlers) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) activateRole(w http.ResponseWriter, r *http.Request) {
	h.setRoleActive(w, r, true)
}

func (h *Handlers) deactivateRole(w http.ResponseWriter, r *http.Request) {
	h.setRoleActive(w, r, false)
}

func (h *Handlers) setRoleActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.SetRoleActive(r.Context(), id, active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) roleUsers(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	ids, err := h.service.UserIDsByRole(r.Context(), roleID)
	respond(w, r, ids, err)
}

func (h *Handlers) assignRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) removeRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Grants

func (h *Handlers) listGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.ListGrants(r.Context())
	respond(w, r, grants, err)
}

func (h *Handlers) grantsPage(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.GrantsPage(r.Context(), page, size)
	respond(w, r, result, err)
}

func (h *Handlers) countGrants(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountGrants(r.Context())
	respond(w, r, map[string]int64{"count": n}, err)
}

func (h *Handlers) grantExists(w http.ResponseWriter, r *http.Request) {
	roleID, err := httputil.ParseQueryInt(r, "roleId", 0)
	if err != nil || roleID <= 0 {
		httputil.WriteBadRequest(w, "roleId is required")
		return
	}
	menuID, err := httputil.ParseQueryInt(r, "menuId", 0)
	if err != nil || menuID <= 0 {
		httputil.WriteBadRequest(w, "menuId is required")
		return
	}
	exists, err := h.service.GrantExists(r.Context(), int64(roleID), int64(menuID))
	respond(w, r, map[string]bool{"exists": exists}, err)
}

func (h *Handlers) getGrant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	grant, err := h.service.GetGrant(r.Context(), id)
	respond(w, r, grant, err)
}

func (h *Handlers) createGrant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	grant, err := h.service.CreateGrant(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, grant)
}

func (h *Handlers) createGrants(w http.ResponseWriter, r *http.Request) {
	var reqs []GrantRequest
	if !httputil.ParseJSONOrError(w, r, &reqs) {
		return
	}
	grants, err := h.service.CreateGrants(r.Context(), reqs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, grants)
}

func (h *Handlers) updateGrant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateGrantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	grant, err := h.service.UpdateGrant(r.Context(), id, req)
	respond(w, r, grant, err)
}

func (h *Handlers) deleteGrant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteGrant(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) grantsByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	grants, err := h.service.GrantsByRole(r.Context(), roleID)
	respond(w, r, grants, err)
}

func (h *Handlers) deleteGrantsByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	n, err := h.service.DeleteGrantsByRole(r.Context(), roleID)
	respond(w, r, map[string]int64{"deleted": n}, err)
}

func (h *Handlers) replaceRoleGrants(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	var reqs []GrantRequest
	if !httputil.ParseJSONOrError(w, r, &reqs) {
		return
	}
	grants, err := h.service.ReplaceRoleGrants(r.Context(), roleID, reqs)
	respond(w, r, grants, err)
}

func (h *Handlers) menuIDsByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	ids, err := h.service.MenuIDsByRole(r.Context(), roleID)
	respond(w, r, ids, err)
}

func (h *Handlers) deleteGrantByRoleAndMenu(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "roleId")
	if !ok {
		return
	}
	menuID, ok := httputil.ParsePathInt64OrError(w, r, "menuId")
	if !ok {
		return
	}
	if err := h.service.DeleteGrantByRoleAndMenu(r.Context(), roleID, menuID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) grantsByMenu(w http.ResponseWriter, r *http.Request) {
	menuID, ok := httputil.ParsePathInt64OrError(w, r, "menuId")
	if !ok {
		return
	}
	grants, err := h.service.GrantsByMenu(r.Context(), menuID)
	respond(w, r, grants, err)
}

func (h *Handlers) deleteGrantsByMenu(w http.ResponseWriter, r *http.Request) {
	menuID, ok := httputil.ParsePathInt64OrError(w, r, "menuId")
	if !ok {
		return
	}
	n, err := h.service.DeleteGrantsByMenu(r.Context(), menuID)
	respond(w, r, map[string]int64{"deleted": n}, err)
}

func (h *Handlers) roleIDsByMenu(w http.ResponseWriter, r *http.Request) {
	menuID, ok := httputil.ParsePathInt64OrError(w, r, "menuId")
	if !ok {
		return
	}
	ids, err := h.service.RoleIDsByMenu(r.Context(), menuID)
	respond(w, r, ids, err)
}

func (h *Handlers) grantsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	grants, err := h.service.GrantsByUser(r.Context(), userID)
	respond(w, r, grants, err)
}

// CheckResponse is the answer to a permission check for the caller
type CheckResponse struct {
	MenuCode MenuCode `json:"menu_code"`
	Action   string   `json:"action"`
	Allowed  bool     `json:"allowed"`
}

// checkPermission answers whether the caller holds menu/action, where action
// is a single bit or one of manage, full, access
func (h *Handlers) checkPermission(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	menu := httputil.ParseQueryString(r, "menu", "")
	if menu == "" {
		httputil.WriteBadRequest(w, "menu is required")
		return
	}
	raw := httputil.ParseQueryString(r, "action", string(ActionRead))

	var allowed bool
	var err error
	if action, ok := ParseAction(raw); ok {
		allowed, err = h.engine.Resolve(r.Context(), principal.Username, MenuCode(menu), action)
	} else if kind, ok := ParseComposite(raw); ok {
		allowed, err = h.engine.Composite(r.Context(), principal.Username, MenuCode(menu), kind)
	} else {
		httputil.WriteBadRequest(w, "unknown action: "+raw)
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, CheckResponse{MenuCode: MenuCode(menu), Action: raw, Allowed: allowed})
}

// MyMenusResponse is the caller's navigation
type MyMenusResponse struct {
	Menus      []*Menu  `json:"menus"`
	Accessible []string `json:"accessible"`
}

func (h *Handlers) myMenus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	userID := principal.UserID
	if userID == 0 {
		user, err := h.service.Store().GetUserByUsername(ctx, principal.Username)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		userID = user.ID
	}

	tree, err := h.service.UserMenuTree(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	accessible, err := h.engine.AccessibleMenus(ctx, principal.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tree == nil {
		tree = []*Menu{}
	}
	httputil.WriteSuccess(w, MyMenusResponse{Menus: tree, Accessible: accessible})
}
