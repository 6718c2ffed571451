// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		List returns accounts ordered by creation time, newest first.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Hydrated entities
		  - error: Database retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*User, error)

	/*
		Count returns the total number of registered accounts.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Total account count
		  - error: Database retrieval failures
	*/
	Count(context context.Context) (int64, error)
}

// # Active Session Data Access

// ActiveSessionRepository stores the single active bearer token per account.
//
// The stored value IS the account's active-token field: Set atomically
// replaces whatever token was stored before (superseding the previous
// device's session), Get returns it for byte-for-byte comparison, and
// Clear revokes it on logout.
type ActiveSessionRepository interface {

	/*
		Set stores the token as the account's one active session,
		overwriting any previous token.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - token: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, userID, token string, ttl time.Duration) error

	/*
		Get retrieves the account's currently active token. An account
		with no active session yields an empty string and a nil error.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - string: Active token, or "" when no session exists
		  - error: Retrieval failures
	*/
	Get(context context.Context, userID string) (string, error)

	/*
		Clear removes the account's active session. Clearing an account
		with no session is a no-op.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	Clear(context context.Context, userID string) error
}
