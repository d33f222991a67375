package model

import "testing"

func TestRoleCanCreate(t *testing.T) {
	cases := []struct {
		creator Role
		target  Role
		want    bool
	}{
		{RoleMasterAdmin, RoleRecharger, true},
		{RoleMasterAdmin, RoleStallAdmin, true},
		{RoleMasterAdmin, RoleRechargerAdmin, true},
		{RoleMasterAdmin, RoleMasterAdmin, false},
		{RoleMasterAdmin, RoleStallCashier, false},
		{RoleRechargerAdmin, RoleRecharger, true},
		{RoleRechargerAdmin, RoleStallAdmin, false},
		{RoleStallAdmin, RoleStallCashier, true},
		{RoleStallAdmin, RoleStallAdmin, false},
		{RoleRecharger, RoleRecharger, false},
		{RoleStallCashier, RoleStallCashier, false},
	}
	for _, tc := range cases {
		if got := tc.creator.CanCreate(tc.target); got != tc.want {
			t.Errorf("%s.CanCreate(%s) = %v, want %v", tc.creator, tc.target, got, tc.want)
		}
	}
}

func TestRoleIsStallRole(t *testing.T) {
	for role, want := range map[Role]bool{
		RoleStallAdmin:     true,
		RoleStallCashier:   true,
		RoleMasterAdmin:    false,
		RoleRecharger:      false,
		RoleRechargerAdmin: false,
	} {
		if got := role.IsStallRole(); got != want {
			t.Errorf("%s.IsStallRole() = %v, want %v", role, got, want)
		}
	}
}
