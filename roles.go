package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Role is the privilege tag carried by a user record
type Role string

const (
	// RoleOwner owns the instance
	RoleOwner Role = "Owner"
	// RoleAdmin administers users and content
	RoleAdmin Role = "Admin"
	// RoleModerator moderates content
	RoleModerator Role = "Moderator"
	// RoleUser is the default role for registered users
	RoleUser Role = "User"
)

var roleHierarchy = map[Role]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
	RoleOwner:     3,
}

// String returns the canonical role name
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// IsAtLeast checks if this role meets the minimum required level
func (r Role) IsAtLeast(minRole Role) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns all predefined roles in hierarchical order
func AllRoles() []Role {
	return []Role{
		RoleUser,
		RoleModerator,
		RoleAdmin,
		RoleOwner,
	}
}

// ParseRole parses the canonical role name. Matching ignores case and
// surrounding whitespace.
func ParseRole(s string) (Role, error) {
	trimmed := strings.TrimSpace(s)
	for _, role := range AllRoles() {
		if strings.EqualFold(trimmed, string(role)) {
			return role, nil
		}
	}

	return "", ErrInvalidRole.Clone().WithMetadata(map[string]any{
		"role": s,
	})
}

// ErrInvalidRole is returned when a role name is not part of the closed set
var ErrInvalidRole = errors.New("invalid role", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidData).
	WithCode(errors.CodeBadRequest)
