package model

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PermissionAdmin             = "admin"
	PermissionTransactionsRead  = "transactions:read"
	PermissionTransactionsWrite = "transactions:write"
)

// ValidPermission reports whether p is a permission tokens may carry.
func ValidPermission(p string) bool {
	switch p {
	case PermissionAdmin, PermissionTransactionsRead, PermissionTransactionsWrite:
		return true
	}
	return false
}

type AppClaims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Has reports whether the claims grant permission p. Admin implies every permission.
func (c *AppClaims) Has(p string) bool {
	return slices.Contains(c.Permissions, PermissionAdmin) || slices.Contains(c.Permissions, p)
}

func (c *AppClaims) IsAdmin() bool {
	return slices.Contains(c.Permissions, PermissionAdmin)
}

// UserID parses the subject claim as the caller's user ID.
func (c *AppClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
