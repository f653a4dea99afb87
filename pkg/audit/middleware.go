package audit

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

type activity struct {
	prefix  string
	method  string
	action  string
	message string
}

// Mutating endpoints that leave a trail. Matched by path prefix in order.
var activities = []activity{
	{"/api/auth/login", http.MethodPost, ActionLogin, "user logged in"},
	{"/api/auth/logout", http.MethodPost, ActionLogout, "user logged out"},
	{"/api/users", http.MethodPost, "CREATE_USER", "user created"},
	{"/api/users", http.MethodPut, "UPDATE_USER", "user updated"},
	{"/api/users", http.MethodDelete, "DELETE_USER", "user deleted"},
	{"/api/roles", http.MethodPost, "CREATE_ROLE", "role created"},
	{"/api/roles", http.MethodPut, "UPDATE_ROLE", "role updated"},
	{"/api/roles", http.MethodDelete, "DELETE_ROLE", "role deleted"},
	{"/api/menus", http.MethodPost, "CREATE_MENU", "menu created"},
	{"/api/menus", http.MethodPut, "UPDATE_MENU", "menu updated"},
	{"/api/menus", http.MethodDelete, "DELETE_MENU", "menu deleted"},
	{"/api/permissions", http.MethodPost, "UPDATE_PERMISSION", "permission updated"},
	{"/api/permissions", http.MethodPut, "UPDATE_PERMISSION", "permission updated"},
	{"/api/permissions", http.MethodDelete, "DELETE_PERMISSION", "permission deleted"},
	{"/api/role-menus", http.MethodPost, "UPDATE_PERMISSION", "permission updated"},
	{"/api/role-menus", http.MethodPut, "UPDATE_PERMISSION", "permission updated"},
	{"/api/role-menus", http.MethodDelete, "DELETE_PERMISSION", "permission deleted"},
}

func lookupActivity(method, path string) (activity, bool) {
	for _, a := range activities {
		if a.method == method && strings.HasPrefix(path, a.prefix) {
			return a, true
		}
	}
	return activity{}, false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware attaches the recorder and client info to every request and logs
// a system entry for known mutating endpoints once they complete.
// Denied requests (401/403) are left to the permission guard. Mount it after
// authentication so the username is on the context.
func Middleware(recorder *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClientInfo(r.Context(), ClientInfoFromRequest(r))
			ctx = WithRecorder(ctx, recorder)
			r = r.WithContext(ctx)

			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			a, ok := lookupActivity(r.Method, r.URL.Path)
			if !ok || sw.status == http.StatusUnauthorized || sw.status == http.StatusForbidden {
				return
			}

			username := observability.GetUsername(ctx)
			if username == "" {
				username = "anonymous"
			}

			if sw.status < 400 {
				recorder.Info(ctx, username, a.action, a.message)
				return
			}
			recorder.Warning(ctx, username, a.action, a.message+" failed: "+http.StatusText(sw.status))
		})
	}
}
