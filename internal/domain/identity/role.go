package identity

import (
	"fmt"
	"strings"

	"buildinspect/internal/domain"
)

// Role is the closed set of capabilities a profile can carry.
type Role string

const (
	RoleOwner     Role = "Owner"
	RoleInspector Role = "Inspector"
	RoleAdmin     Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleInspector, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "inspector":
		return RoleInspector, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", domain.ErrValidation, s)
}

// StartsApproved reports whether a fresh profile with this role is usable
// without admin review.
func (r Role) StartsApproved() bool {
	switch r {
	case RoleInspector:
		return false
	case RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// Dashboard names the landing screen for the role.
func (r Role) Dashboard() string {
	switch r {
	case RoleOwner:
		return "owner_dashboard"
	case RoleInspector:
		return "inspector_dashboard"
	case RoleAdmin:
		return "admin_dashboard"
	}
	return "home"
}
