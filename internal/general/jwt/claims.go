package jwt

import (
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines our canonical JWT claims payload. The subject is the user
// id; role and organization drive RBAC and room placement.
type Claims struct {
	Role           user.Role `json:"role"` // DELIVERY/ADMIN/CUSTOMER/SUPER_ADMIN
	Email          string    `json:"email,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs claims for a verified identity.
func NewUserClaims(ident user.Identity, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role:           ident.Role,
		Email:          ident.Email,
		OrganizationID: ident.OrganizationID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   ident.UserID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// Identity rebuilds the verified identity carried by the claims.
func (c *Claims) Identity() (user.Identity, error) {
	return user.NewIdentity(c.Subject, c.Email, c.Role, c.OrganizationID)
}
