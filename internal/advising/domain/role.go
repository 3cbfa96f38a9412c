package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the caller's role as resolved by the identity provider.
type Role string

const (
	RoleStudent       Role = "student"
	RoleAdvisor       Role = "advisor"
	RoleAdministrator Role = "administrator"
)

// ParseRole accepts the role names case-insensitively, plus "admin".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "advisor":
		return RoleAdvisor, nil
	case "administrator", "admin":
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, s)
}

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleAdvisor || r == RoleAdministrator
}

// IsStaff reports whether the role may manage sessions and availability.
func (r Role) IsStaff() bool {
	return r == RoleAdvisor || r == RoleAdministrator
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// NewCaller validates an identity handed over by the identity provider.
func NewCaller(id uuid.UUID, role Role) (Caller, error) {
	if id == uuid.Nil {
		return Caller{}, InvalidRequest("caller_id")
	}
	if !role.IsValid() {
		return Caller{}, InvalidRequest("caller_role")
	}
	return Caller{ID: id, Role: role}, nil
}

func (c Caller) IsStaff() bool         { return c.Role.IsStaff() }
func (c Caller) IsAdministrator() bool { return c.Role == RoleAdministrator }
