package auth

import (
	"net/http"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
)

// publicPaths are endpoints that do not require authentication.
var publicPaths = []string{
	"/health",
	"/api/auth/login",
	"/api/auth/refresh",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewMiddleware creates JWT auth middleware. Capabilities are resolved once
// per request from the token's role and flags.
// If validator is nil, all non-public requests are rejected.
func NewMiddleware(validator *JWTValidator, resolver *authz.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.WriteUnauthorized(w, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.WriteUnauthorized(w, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if validator == nil || resolver == nil {
				api.WriteUnauthorized(w, "Authentication not configured")
				return
			}

			claims, err := validator.Validate(parts[1], TokenAccess)
			if err != nil {
				api.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				api.WriteUnauthorized(w, "Token subject is required")
				return
			}

			principal := &BasePrincipal{
				ID:               claims.Subject,
				Email:            claims.Email,
				Role:             authz.Role(claims.Role),
				BaseID:           claims.BaseID,
				TeamID:           claims.TeamID,
				SCIManagerAccess: claims.SCIManagerAccess,
			}
			caps, err := resolver.Resolve(principal.Role, principal.Flags())
			if err != nil {
				api.WriteUnauthorized(w, "Token role is not recognised")
				return
			}
			principal.Capabilities = caps

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects principals lacking c with a 403 whose redirect
// points at the principal's own dashboard.
func RequireCapability(c authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := GetPrincipal(r.Context())
			if err != nil {
				api.WriteUnauthorized(w, "Authentication required")
				return
			}
			if !p.Can(c) {
				redirect := authz.PathLeadDashboard
				if bp, ok := p.(*BasePrincipal); ok {
					redirect = authz.LandingPath(bp.Capabilities)
				}
				api.WriteForbiddenRedirect(w, "Missing capability "+string(c), redirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
