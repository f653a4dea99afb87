// Package middleware authenticates API requests and throttles them.
//
// AuthMiddleware verifies a bearer token through a TokenVerifier and
// attaches the resulting Principal to the request context:
//
//	verifier := middleware.NewJWTVerifier(secret, issuer)
//	router.Use(middleware.NewAuthMiddleware(verifier, false).Handler)
//
// Downstream handlers read it back with GetPrincipal. Permission checks on
// top of the principal live in pkg/rbac.
//
// RateLimitMiddleware throttles per principal, or per client IP when the
// request is anonymous, using either the in-process RateLimiter or the
// Redis-backed DistributedRateLimiter shared across replicas.
package middleware
