// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
//
// Roles are orthogonal to the session mechanism: they gate a handful of
// admin endpoints and are never consulted by the task API.
type UserRole string

const (
	// Unrestricted access, including the admin endpoints
	RoleAdmin UserRole = "admin"

	// Default role for standard registered users
	RoleUser UserRole = "user"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// IsValid reports whether the role is one of the known enum values.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-20) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
