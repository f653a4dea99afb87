package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

type stubVerifier struct {
	principal *Principal
	err       error
	gotToken  string
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	s.gotToken = token
	return s.principal, s.err
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier("secret", "menuguard")

	token, err := v.Issue(Principal{UserID: 7, Username: "alice", Roles: []string{"ADMIN"}}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, []string{"ADMIN"}, p.Roles)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier("secret", "menuguard")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTVerifier("other", "menuguard").Issue(Principal{Username: "alice"}, time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTVerifier("secret", "someone-else").Issue(Principal{Username: "alice"}, time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.Issue(Principal{Username: "alice"}, -time.Minute)
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := v.Issue(Principal{UserID: 1}, time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "menuguard"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthMiddleware_Handler(t *testing.T) {
	alice := &Principal{UserID: 1, Username: "alice"}

	tests := []struct {
		name       string
		header     string
		optional   bool
		verifier   *stubVerifier
		wantStatus int
		wantCalled bool
	}{
		{"missing header", "", false, &stubVerifier{}, http.StatusUnauthorized, false},
		{"missing header optional", "", true, &stubVerifier{}, http.StatusOK, true},
		{"wrong scheme", "Basic abc", false, &stubVerifier{}, http.StatusUnauthorized, false},
		{"empty token", "Bearer ", false, &stubVerifier{}, http.StatusUnauthorized, false},
		{"rejected token", "Bearer bad", false, &stubVerifier{err: ErrInvalidToken}, http.StatusUnauthorized, false},
		{"valid token", "Bearer good", false, &stubVerifier{principal: alice}, http.StatusOK, true},
		{"lowercase scheme", "bearer good", false, &stubVerifier{principal: alice}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var seen *Principal
			handler := NewAuthMiddleware(tt.verifier, tt.optional).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen = GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/menus", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.verifier.principal != nil && called {
				assert.Equal(t, "good", tt.verifier.gotToken)
				assert.Equal(t, alice, seen)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestWithPrincipal(t *testing.T) {
	assert.Nil(t, GetPrincipal(context.Background()))

	ctx := WithPrincipal(context.Background(), &Principal{UserID: 3, Username: "bob"})
	p := GetPrincipal(ctx)
	require.NotNil(t, p)
	assert.Equal(t, int64(3), p.UserID)
	assert.Equal(t, "bob", observability.GetUsername(ctx))
}

// Issue signs a token for p valid for ttl. Tokens are minted by the identity
// provider in production; tests mint their own.
func (v *JWTVerifier) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: p.UserID,
		Roles:  p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
