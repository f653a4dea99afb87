package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/menuguard/pkg/contextkeys"
	"github.com/platinummonkey/menuguard/pkg/httputil"
	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
}

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier turns a bearer token into a principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Claims is the JWT payload. The subject carries the username.
type Claims struct {
	UserID int64    `json:"uid"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier. An empty issuer accepts any issuer.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify checks the signature, expiry and issuer of token
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Principal{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Roles:    claims.Roles,
	}, nil
}

// AuthMiddleware authenticates bearer tokens
type AuthMiddleware struct {
	verifier TokenVerifier
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier TokenVerifier, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		// Format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		principal, err := m.verifier.Verify(r.Context(), parts[1])
		if err != nil {
			observability.FromContext(r.Context()).WithError(err).Debug("Bearer token rejected")
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithPrincipal attaches p to ctx along with its username for logging
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, contextkeys.PrincipalKey, p)
	return observability.WithUsername(ctx, p.Username)
}

// GetPrincipal returns the authenticated principal, or nil
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextkeys.PrincipalKey).(*Principal)
	return p
}
