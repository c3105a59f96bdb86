package auth

import (
	"net/http"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/ratelimit"
)

// RateLimitMiddleware enforces per-actor rate limiting. The actor is the
// authenticated user, falling back to the client IP.
// It fails open when no store is configured or the store errors.
func RateLimitMiddleware(store ratelimit.Store, policy ratelimit.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			actorID := "ip:" + api.ClientIP(r)
			if principal, err := GetPrincipal(r.Context()); err == nil {
				actorID = "user:" + principal.GetID()
			}

			allowed, err := store.Allow(r.Context(), actorID, policy, 1)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				api.WriteTooManyRequests(w, policy.RetryAfter())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
