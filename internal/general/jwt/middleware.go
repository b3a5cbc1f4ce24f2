package jwt

import (
	"net/http"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

// AuthMiddlewareFunc gates an HTTP route on a valid token and an allowed
// role, and injects the claims into the request context for the handler.
func AuthMiddlewareFunc(mgr *Manager, allowedRoles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, status, err := authorize(mgr, r, allowedRoles)
			if err != nil {
				http.Error(w, err.Error(), status)
				return
			}
			next(w, r.WithContext(InjectClaims(r.Context(), claims)))
		}
	}
}

// authorize resolves the request's claims. Token problems are 401, a
// disallowed role is 403.
func authorize(mgr *Manager, r *http.Request, allowedRoles []user.Role) (*Claims, int, error) {
	raw, err := FromAuthorization(r)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}

	_, claims, err := mgr.ParseAndValidate(raw)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}

	if err := RoleAllowed(claims, allowedRoles...); err != nil {
		return nil, http.StatusForbidden, err
	}
	return claims, 0, nil
}

// RequireClaims extracts JWT claims from the request context.
func RequireClaims(r *http.Request) *Claims {
	c, _ := FromContext(r.Context())
	return c
}
