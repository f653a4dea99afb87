// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here so that
// producers and consumers agree on a single typed key.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/menuguard/pkg/contextkeys"
//	ctx = context.WithValue(ctx, contextkeys.PrincipalKey, principal)
//	principal, _ := ctx.Value(contextkeys.PrincipalKey).(*middleware.Principal)
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *middleware.Principal
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: rbac.Guard and every guarded API endpoint
	PrincipalKey Key = "principal"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, system log entries
	RequestIDKey Key = "request_id"

	// UsernameKey contains the authenticated username
	// Set by: middleware.AuthMiddleware
	// Used by: Logger
	UsernameKey Key = "username"

	// LoggerKey contains *observability.Logger
	LoggerKey Key = "logger"

	// AuditLoggerKey contains *audit.Recorder
	// Set by: audit.Middleware
	// Used by: Handlers that record system log entries
	AuditLoggerKey Key = "audit_logger"
)
