package user

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"delivery", RoleDelivery, false},
		{" Admin ", RoleAdmin, false},
		{"SUPER_ADMIN", RoleSuperAdmin, false},
		{"customer", RoleCustomer, false},
		{"driver", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q) err = %v, want ErrInvalidRole", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestRoleRequiresOrganization(t *testing.T) {
	if !RoleDelivery.RequiresOrganization() || !RoleAdmin.RequiresOrganization() {
		t.Error("delivery and admin roles must require an organization")
	}
	if RoleCustomer.RequiresOrganization() || RoleSuperAdmin.RequiresOrganization() {
		t.Error("customer and super admin roles must not require an organization")
	}
}

func TestNewIdentity(t *testing.T) {
	ident, err := NewIdentity("u1", "d1@fleet.example", RoleDelivery, "org1")
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if !ident.HasOrganization() || !ident.IsDelivery() {
		t.Errorf("unexpected identity: %+v", ident)
	}

	if _, err := NewIdentity("", "d1@fleet.example", RoleDelivery, "org1"); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("empty user id: got %v", err)
	}
	if _, err := NewIdentity("u1", "not-an-email", RoleDelivery, "org1"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("bad email: got %v", err)
	}
	if _, err := NewIdentity("u1", "d1@fleet.example", RoleDelivery, ""); !errors.Is(err, ErrMissingOrg) {
		t.Errorf("delivery without org: got %v", err)
	}
	// customers may come without an organization
	if _, err := NewIdentity("c1", "c1@shop.example", RoleCustomer, ""); err != nil {
		t.Errorf("customer without org: %v", err)
	}
}
