package user

import (
	"errors"
	"strings"
)

// Role is a user role as carried in verified token claims.
type Role string

const (
	RoleDelivery   Role = "DELIVERY"
	RoleAdmin      Role = "ADMIN"
	RoleCustomer   Role = "CUSTOMER"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var ErrInvalidRole = errors.New("invalid role")

// knownRoles drives both parsing and validation.
var knownRoles = map[Role]bool{
	RoleDelivery:   true,
	RoleAdmin:      true,
	RoleCustomer:   true,
	RoleSuperAdmin: true,
}

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !knownRoles[role] {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether role is one of the allowed role constants.
func (role Role) Valid() bool { return knownRoles[role] }

func (role Role) String() string { return string(role) }

// RequiresOrganization reports whether identities with this role must carry
// an organization id. Delivery personnel and org admins always belong to an
// organization; customers and platform operators may not.
func (role Role) RequiresOrganization() bool {
	return role == RoleDelivery || role == RoleAdmin
}

// Convenience helpers.
func (role Role) IsDelivery() bool   { return role == RoleDelivery }
func (role Role) IsAdmin() bool      { return role == RoleAdmin }
func (role Role) IsCustomer() bool   { return role == RoleCustomer }
func (role Role) IsSuperAdmin() bool { return role == RoleSuperAdmin }
