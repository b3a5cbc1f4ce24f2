package user

import (
	"errors"
	"net/mail"
	"strings"
)

// Identity is the verified subject of a connection, produced by token
// verification. The tracking service never stores identities; they live only
// for the duration of a session.
type Identity struct {
	UserID         string
	Email          string
	Role           Role
	OrganizationID string
}

var (
	ErrEmptyUserID     = errors.New("user id cannot be empty")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrMissingOrg      = errors.New("organization id required for this role")
	ErrIdentityInvalid = errors.New("invalid identity")
)

// NewIdentity constructs a verified Identity and checks its invariants.
func NewIdentity(userID, email string, role Role, organizationID string) (Identity, error) {
	ident := Identity{
		UserID:         strings.TrimSpace(userID),
		Email:          strings.TrimSpace(email),
		Role:           role,
		OrganizationID: strings.TrimSpace(organizationID),
	}
	if err := ident.Validate(); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// Validate checks invariants of the Identity.
func (ident Identity) Validate() error {
	if ident.UserID == "" {
		return ErrEmptyUserID
	}
	if _, err := mail.ParseAddress(ident.Email); err != nil {
		return ErrInvalidEmail
	}
	if !ident.Role.Valid() {
		return ErrInvalidRole
	}
	if ident.OrganizationID == "" && ident.Role.RequiresOrganization() {
		return ErrMissingOrg
	}
	return nil
}

// HasOrganization reports whether the identity belongs to an organization.
func (ident Identity) HasOrganization() bool {
	return ident.OrganizationID != ""
}

// Convenience helpers.
func (ident Identity) IsDelivery() bool   { return ident.Role.IsDelivery() }
func (ident Identity) IsAdmin() bool      { return ident.Role.IsAdmin() }
func (ident Identity) IsCustomer() bool   { return ident.Role.IsCustomer() }
func (ident Identity) IsSuperAdmin() bool { return ident.Role.IsSuperAdmin() }
