// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

/*
Package auth implements the user identity and session management layer.

It defines the core domain entity (User) and the logic for registration,
login, logout, and bearer-token session validation.

# Architecture

This layer is the "Truth" of the system. Every account holds at most ONE
active session token at a time: logging in overwrites the stored token,
which silently invalidates whatever token the previous device still holds.
The validator surfaces that invalidation as a distinguished FORCE_LOGOUT
condition so clients know to purge their cached credentials.
*/
package auth

import (
	"time"

	"github.com/taskora/taskora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Taskora platform.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string       `json:"display_name"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LoginSession is the result of a successful login: the freshly minted
// bearer token that is now the account's single active session, plus the
// authenticated account for the client's convenience.
type LoginSession struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail       = "email"
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldToken       = "token"
	FieldUser        = "user"
	FieldMessage     = "message"
)
