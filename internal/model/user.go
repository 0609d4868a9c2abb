package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.  The string value is what gets
// persisted in `users.role` and embedded in access tokens.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// Roles lists every valid role in a stable order (used for dashboard breakdowns).
var Roles = []Role{RoleAdmin, RoleUser, RoleStoreOwner}

// ParseRole converts a raw string into a Role.  Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User represents a row of the `users` table.  PasswordHash never leaves the
// server; handlers convert to PublicUser before responding.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name, 3 to 60 characters.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Address      – postal address, up to 400 characters.
//  Role         – admin, user or store_owner.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Address      string    // users.address
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PublicUser is the sanitized JSON form of a user.
type PublicUser struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
