package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/ratelimit"
)

func createTestToken(t *testing.T, ks identity.KeySet, sub, role, use string, expiry time.Time) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "medmais",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Use:    use,
		Role:   role,
		BaseID: "base-goiania",
		TeamID: "team-alfa",
	}
	token, err := ks.Sign(context.Background(), claims)
	require.NoError(t, err)
	return token
}

func setupMiddleware(t *testing.T) (identity.KeySet, func(http.Handler) http.Handler) {
	t.Helper()
	ks, err := identity.NewInMemoryKeySet()
	require.NoError(t, err)
	resolver, err := authz.Default()
	require.NoError(t, err)
	return ks, auth.NewMiddleware(auth.NewJWTValidator(ks), resolver)
}

func serve(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ValidToken(t *testing.T) {
	ks, middleware := setupMiddleware(t)

	var captured auth.Principal
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.GetPrincipal(r.Context())
		require.NoError(t, err)
		captured = p
		w.WriteHeader(http.StatusOK)
	}))

	token := createTestToken(t, ks, "user-123", "chefe", auth.TokenAccess, time.Now().Add(time.Hour))
	w := serve(handler, "/api/submissions", token)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-123", captured.GetID())
	assert.Equal(t, authz.RoleTeamLead, captured.GetRole())
	assert.Equal(t, "base-goiania", captured.GetBaseID())
	assert.True(t, captured.Can(authz.CapSubmissionsCreate))
	assert.False(t, captured.Can(authz.CapComplianceView))
}

func TestMiddleware_Rejections(t *testing.T) {
	ks, middleware := setupMiddleware(t)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"expired", createTestToken(t, ks, "u", "geral", auth.TokenAccess, time.Now().Add(-time.Hour))},
		{"refresh token", createTestToken(t, ks, "u", "geral", auth.TokenRefresh, time.Now().Add(time.Hour))},
		{"unknown role", createTestToken(t, ks, "u", "admin", auth.TokenAccess, time.Now().Add(time.Hour))},
		{"no subject", createTestToken(t, ks, "", "geral", auth.TokenAccess, time.Now().Add(time.Hour))},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handler, "/api/me", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_PublicPaths(t *testing.T) {
	_, middleware := setupMiddleware(t)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/api/auth/login", "/api/auth/refresh"} {
		assert.Equal(t, http.StatusOK, serve(handler, path, "").Code, path)
	}
}

func TestMiddleware_NilValidatorFailsClosed(t *testing.T) {
	handler := auth.NewMiddleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "/api/me", "anything").Code)
}

func TestRequireCapability_RedirectsToLanding(t *testing.T) {
	ks, middleware := setupMiddleware(t)
	guarded := middleware(auth.RequireCapability(authz.CapComplianceView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := serve(guarded, "/api/compliance", createTestToken(t, ks, "u1", "gerente_sci", auth.TokenAccess, time.Now().Add(time.Hour)))
	require.Equal(t, http.StatusForbidden, w.Code)

	var problem api.ProblemDetail
	require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
	assert.Equal(t, authz.PathSCIManagerDashboard, problem.Redirect)

	w = serve(guarded, "/api/compliance", createTestToken(t, ks, "u2", "geral", auth.TokenAccess, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	handler := auth.CORSMiddleware([]string{"https://app.medmais.local"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/submissions", nil)
	req.Header.Set("Origin", "https://app.medmais.local")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.medmais.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := auth.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetRequestID(r.Context())
	}))

	w := serve(handler, "/health", "")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-42", seen)
}

func TestRateLimitMiddleware_PerActor(t *testing.T) {
	ks, middleware := setupMiddleware(t)
	limited := auth.RateLimitMiddleware(ratelimit.NewMemoryStore(), ratelimit.Policy{RPM: 1, Burst: 1})
	handler := middleware(limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	alice := createTestToken(t, ks, "alice", "chefe", auth.TokenAccess, time.Now().Add(time.Hour))
	bob := createTestToken(t, ks, "bob", "chefe", auth.TokenAccess, time.Now().Add(time.Hour))

	assert.Equal(t, http.StatusOK, serve(handler, "/api/me", alice).Code)
	w := serve(handler, "/api/me", alice)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, serve(handler, "/api/me", bob).Code)
}

func TestRateLimitMiddleware_NilStoreFailsOpen(t *testing.T) {
	handler := auth.RateLimitMiddleware(nil, ratelimit.Policy{RPM: 1, Burst: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(handler, "/api/me", "").Code)
	}
}
