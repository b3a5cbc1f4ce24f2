package jwt

import (
	"context"
	"strings"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// TokenVerifier adapts the Manager to the hub's Verifier port. Clients send
// the token inside the first authenticate frame, either raw or wrapped as
// "Bearer <token>".
type TokenVerifier struct {
	mgr *Manager
}

var _ realtime.Verifier = (*TokenVerifier)(nil)

func NewTokenVerifier(mgr *Manager) *TokenVerifier {
	return &TokenVerifier{mgr: mgr}
}

// Verify validates the token and rebuilds the identity carried by its claims.
func (v *TokenVerifier) Verify(_ context.Context, token string) (user.Identity, error) {
	raw := strings.TrimSpace(token)
	if stripped, ok := bearerToken(raw); ok {
		raw = stripped
	}
	if raw == "" {
		return user.Identity{}, ErrEmptyToken
	}

	_, claims, err := v.mgr.ParseAndValidate(raw)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.Identity()
}
