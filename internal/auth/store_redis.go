// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskora/taskora/internal/platform/constants"
)

// # Active Session Repository

// RedisSessionRepository implements ActiveSessionRepository using Redis.
//
// The key auth:session:<user_id> holds the account's single active bearer
// token. A plain SET replaces the previous value atomically, so concurrent
// logins resolve last-write-wins and the loser's token fails the next
// active-session comparison. The TTL mirrors the token lifetime so
// abandoned sessions reclaim themselves.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed ActiveSessionRepository.
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

/*
Set stores the token as the account's one active session.

Description: Overwrites whatever token was stored before. This overwrite IS
the supersession mechanism: the previous device's token remains a valid JWT
but no longer matches the stored value.

Parameters:
  - context: context.Context
  - userID: string
  - token: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Set(context context.Context, userID, token string, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + userID

	// Set the token with TTL
	if err := repository.client.Set(context, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Get retrieves the account's currently active token.

Description: Absence (never logged in, logged out, or TTL-expired) is not an
error from the storage point of view. The caller decides what it means.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - string: Active token, or "" when no session exists
  - error: Connectivity errors
*/
func (repository *RedisSessionRepository) Get(context context.Context, userID string) (string, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + userID

	// Get the token from Redis
	token, err := repository.client.Get(context, key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_session_get_failed: %w", err)
	}

	// Return the active token
	return token, nil
}

/*
Clear removes the account's active session.

Description: DEL on a missing key is a no-op in Redis, so clearing an
account that has no session succeeds silently.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisSessionRepository) Clear(context context.Context, userID string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + userID

	// Delete the token from Redis
	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_clear_failed: %w", err)
	}

	// Return nil on success
	return nil
}
