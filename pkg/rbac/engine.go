package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Engine resolves permission decisions. It holds no mutable state and reads
// the repository on every call; decisions are never cached.
type Engine struct {
	repo    Repository
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewEngine creates an engine over repo. metrics may be nil.
func NewEngine(repo Repository, logger *observability.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Engine{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  observability.Tracer("github.com/platinummonkey/menuguard/pkg/rbac"),
	}
}

// Resolve reports whether username may perform action on the menu
func (e *Engine) Resolve(ctx context.Context, username string, code MenuCode, action Action) (bool, error) {
	return e.check(ctx, string(action), username, code, []Action{action})
}

// Composite reports whether the union of username's role grants covers
// every bit the composite requires. Bits may come from different roles.
func (e *Engine) Composite(ctx context.Context, username string, code MenuCode, kind Composite) (bool, error) {
	actions := kind.Actions()
	if actions == nil {
		e.logger.WithField("composite", string(kind)).Warn("Unknown composite permission, denying")
		e.metrics.ObserveDecision(string(kind), false, nil, 0)
		return false, nil
	}
	return e.check(ctx, string(kind), username, code, actions)
}

// Check reports whether the union of username's role grants on the menu
// covers every listed action. An empty list is denied.
func (e *Engine) Check(ctx context.Context, username string, code MenuCode, actions ...Action) (bool, error) {
	return e.check(ctx, checkLabel(actions), username, code, actions)
}

func checkLabel(actions []Action) string {
	if len(actions) == 1 {
		return string(actions[0])
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, "+")
}

func (e *Engine) check(ctx context.Context, label, username string, code MenuCode, actions []Action) (allowed bool, err error) {
	ctx, span := e.tracer.Start(ctx, "rbac.check", trace.WithAttributes(
		attribute.String("rbac.check", label),
		attribute.String("rbac.menu_code", string(code)),
		attribute.String("rbac.username", username),
	))
	start := time.Now()
	defer func() {
		e.metrics.ObserveDecision(label, allowed, err, time.Since(start))
		span.SetAttributes(attribute.Bool("rbac.allowed", allowed))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(actions) == 0 {
		return false, nil
	}
	for _, a := range actions {
		if !a.Valid() {
			observability.UpdateLoggerWithTraceContext(ctx, e.logger).
				WithField("action", string(a)).
				WithField("menu_code", string(code)).
				Warn("Unknown permission action, denying")
			return false, nil
		}
	}

	allowed, err = e.evaluate(ctx, username, code, actions)
	if err != nil {
		return false, fmt.Errorf("permission check failed for %s on %s: %w", username, code, err)
	}
	return allowed, nil
}

// evaluate walks user -> roles -> menu -> grants. Absent records deny;
// infrastructure errors are returned.
func (e *Engine) evaluate(ctx context.Context, username string, code MenuCode, actions []Action) (bool, error) {
	log := observability.UpdateLoggerWithTraceContext(ctx, e.logger).
		WithField("username", username).
		WithField("menu_code", string(code))

	user, err := e.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		log.Debug("Permission denied: unknown user")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	roleNames, err := e.repo.GetRoleNamesByUserID(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if len(roleNames) == 0 {
		log.Debug("Permission denied: user has no active roles")
		return false, nil
	}

	menu, err := e.repo.FindMenuByCodeOrName(ctx, code)
	if errors.Is(err, ErrNotFound) {
		log.Warn("Permission denied: menu not found")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	required := make(map[Action]bool, len(actions))
	for _, a := range actions {
		required[a] = true
	}

	// Each role's grant row is read once and its bits are ORed into the
	// covered set, so a composite may be satisfied across roles.
	for _, roleName := range roleNames {
		role, err := e.repo.GetRoleByName(ctx, roleName)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}

		grant, err := e.repo.FindGrant(ctx, role.ID, menu.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}

		for a := range required {
			if grant.Allows(a) {
				delete(required, a)
			}
		}
		if len(required) == 0 {
			log.WithField("role", roleName).Debug("Permission granted")
			return true, nil
		}
	}

	log.Debug("Permission denied: no role grants the requested actions")
	return false, nil
}

// AccessibleMenus returns the sorted identifiers of every menu username can
// read through any active role: the menu code, or the display name for
// menus without one. Unknown users get an empty list.
func (e *Engine) AccessibleMenus(ctx context.Context, username string) ([]string, error) {
	ctx, span := e.tracer.Start(ctx, "rbac.accessible_menus", trace.WithAttributes(
		attribute.String("rbac.username", username),
	))
	defer span.End()

	user, err := e.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get accessible menus: %w", err)
	}

	roleNames, err := e.repo.GetRoleNamesByUserID(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get accessible menus: %w", err)
	}

	idents, err := e.repo.AccessibleMenusByRoles(ctx, roleNames)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get accessible menus: %w", err)
	}

	seen := make(map[string]bool, len(idents))
	out := make([]string, 0, len(idents))
	for _, ident := range idents {
		if !seen[ident] {
			seen[ident] = true
			out = append(out, ident)
		}
	}
	sort.Strings(out)
	span.SetAttributes(attribute.Int("rbac.menu_count", len(out)))
	return out, nil
}
