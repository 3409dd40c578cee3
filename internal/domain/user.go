package domain

import (
	"fmt"
	"time"
)

// Role enumerates the closed set of application roles. Routing and
// permissions depend on this exact set.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleClient         Role = "client"
	RoleClientHead     Role = "clientHead"
	RoleEmployee       Role = "employee"
	RoleProjectManager Role = "projectManager"
)

// Roles returns every valid role value.
func Roles() []Role {
	return []Role{RoleAdmin, RoleClient, RoleClientHead, RoleEmployee, RoleProjectManager}
}

// IsValid reports whether the role is one of the five known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleClientHead, RoleEmployee, RoleProjectManager:
		return true
	}
	return false
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", raw)
	}
	return role, nil
}

// User is the application profile paired with an identity-provider
// credential. ID is the identity-provider identifier.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}
