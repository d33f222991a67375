package model

import "time"

type Role string

const (
	RoleMasterAdmin    Role = "masterAdmin"
	RoleRechargerAdmin Role = "rechargerAdmin"
	RoleRecharger      Role = "recharger"
	RoleStallAdmin     Role = "stallAdmin"
	RoleStallCashier   Role = "stallCashier"
)

// allowedCreations is the role creation matrix: which roles each creator
// role may register.
var allowedCreations = map[Role][]Role{
	RoleMasterAdmin:    {RoleRecharger, RoleStallAdmin, RoleRechargerAdmin},
	RoleRechargerAdmin: {RoleRecharger},
	RoleStallAdmin:     {RoleStallCashier},
}

// CanCreate reports whether a user with role creator may register a user
// with role target.
func (creator Role) CanCreate(target Role) bool {
	for _, r := range allowedCreations[creator] {
		if r == target {
			return true
		}
	}
	return false
}

// IsStallRole reports whether the role must be bound to a stall.
func (r Role) IsStallRole() bool {
	return r == RoleStallAdmin || r == RoleStallCashier
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	MotherStall  string    `json:"mother_stall,omitempty"`
	StallID      string    `json:"stall_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	MotherStall string `json:"mother_stall"`
	StallID     string `json:"stall_id"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type PasswordResetRequest struct {
	Phone string `json:"phone"`
}

type PasswordResetConfirm struct {
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}
