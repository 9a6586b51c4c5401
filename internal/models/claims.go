package models

import "github.com/golang-jwt/jwt/v5"

// Roles
const (
	RoleUser     = "user"
	RoleBusiness = "business"
	RoleAdmin    = "admin"
)

// Application permissions
const (
	PermissionWalletRead      = "wallet:read"
	PermissionScheduleRead    = "schedule:read"
	PermissionScheduleWrite   = "schedule:write"
	PermissionSchedulePay     = "schedule:pay"
	PermissionReconcileWallet = "admin:reconcile"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionWalletRead,
			PermissionScheduleRead,
			PermissionScheduleWrite,
			PermissionSchedulePay,
			PermissionReconcileWallet,
		}
	case RoleUser, RoleBusiness:
		return []string{
			PermissionWalletRead,
			PermissionScheduleRead,
			PermissionScheduleWrite,
			PermissionSchedulePay,
		}
	default:
		return []string{}
	}
}
