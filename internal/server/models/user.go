// Package models defines server-side data models persisted in the database.
package models

import (
	"slices"
	"time"
)

// Role is the closed set of capabilities an identity can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultRole is assigned on self-registration.
const DefaultRole = RoleUser

// Roles lists every known role, most privileged first.
var Roles = []Role{RoleAdmin, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// User is an identity together with its credential. Email is the token
// subject. Accounts are never deleted, only deactivated.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the part of User that may leave the server.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Public strips the credential from u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive}
}
