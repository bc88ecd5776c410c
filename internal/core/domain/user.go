package domain

import (
	"strings"
	"time"
)

// Role is the access level granted to a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
	RoleDono   Role = "DONO"
)

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleAdmin, RoleClient, RoleDono}

// ParseRole resolves s case-insensitively against the role enum.
func ParseRole(s string) (Role, error) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range Roles {
		if r == candidate {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// User is a registered account. ID is assigned by the store.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"nome"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Address       string    `json:"endereco"`
	Role          Role      `json:"role"`
	LastUpdatedAt time.Time `json:"ultimaAtualizacao"`
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool { return u.ID == 0 }

// OwnedBy reports whether email identifies the owner of u (case-insensitive).
func (u *User) OwnedBy(email string) bool {
	return email != "" && strings.EqualFold(u.Email, email)
}

// NormalizeEmail is the canonical form used for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
