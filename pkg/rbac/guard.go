package rbac

import (
	"context"
	"net/http"

	"github.com/platinummonkey/menuguard/pkg/audit"
	"github.com/platinummonkey/menuguard/pkg/httputil"
	"github.com/platinummonkey/menuguard/pkg/middleware"
	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Authorizer answers permission questions; Engine implements it
type Authorizer interface {
	Resolve(ctx context.Context, username string, code MenuCode, action Action) (bool, error)
	Composite(ctx context.Context, username string, code MenuCode, kind Composite) (bool, error)
}

// Guard enforces the route table in front of the API handlers. It must run
// after the auth middleware so the principal is on the request.
type Guard struct {
	authz    Authorizer
	routes   *RouteTable
	recorder *audit.Recorder
}

// NewGuard creates a guard. recorder may be nil.
func NewGuard(authz Authorizer, routes *RouteTable, recorder *audit.Recorder) *Guard {
	return &Guard{authz: authz, routes: routes, recorder: recorder}
}

// Handler rejects requests without a principal (401), denied requests and
// unmapped paths (403), and requests whose check failed (500)
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := middleware.GetPrincipal(ctx)
		if principal == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		log := observability.FromContext(ctx).
			WithField("method", r.Method).
			WithField("path", r.URL.Path)

		req, ok := g.routes.Lookup(r.Method, r.URL.Path)
		if !ok {
			log.Warn("No menu mapped for request path, denying")
			g.deny(ctx, w, principal.Username, r.URL.Path)
			return
		}
		if req.Route.AuthenticatedOnly {
			next.ServeHTTP(w, r)
			return
		}

		var allowed bool
		var err error
		if req.Composite != "" {
			allowed, err = g.authz.Composite(ctx, principal.Username, req.Route.Menu, req.Composite)
		} else {
			allowed, err = g.authz.Resolve(ctx, principal.Username, req.Route.Menu, req.Action)
		}
		if err != nil {
			httputil.WriteInternalError(w, r, err)
			return
		}
		if !allowed {
			log.WithField("menu_code", string(req.Route.Menu)).Info("Permission denied")
			g.deny(ctx, w, principal.Username, r.URL.Path)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guard) deny(ctx context.Context, w http.ResponseWriter, username, path string) {
	g.recorder.UnauthorizedAccess(ctx, username, path)
	httputil.WriteForbidden(w, "insufficient permissions")
}
