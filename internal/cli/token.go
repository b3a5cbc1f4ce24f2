package cli

import (
	"fmt"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
)

const defaultTokenTTL = 2 * time.Hour

// GenerateUserToken mints a JWT for a seeded user, dev use only. The role
// string accepts any case; the identity rules (organization required for
// DELIVERY and ADMIN) apply exactly as in the service.
func GenerateUserToken(secret, userID, email, roleStr, organizationID string, ttl time.Duration) (string, jwt.Claims, error) {
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	ident, err := user.NewIdentity(userID, email, role, organizationID)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid identity: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, claims, err := jwt.NewManager(secret, ttl).IssueUserToken(ident)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}
	return token, *claims, nil
}
