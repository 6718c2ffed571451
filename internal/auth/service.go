// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taskora/taskora/internal/platform/apperr"
	"github.com/taskora/taskora/internal/platform/config"
	"github.com/taskora/taskora/internal/platform/sec"
	"github.com/taskora/taskora/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying bearer tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - username: The username of the account.
	//   - role: The role of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)

	// VerifyToken parses and validates a signed JWT string.
	//
	// # Returns
	//   - The embedded claims on success.
	//   - sec.ErrTokenExpired when the token is past its exp claim.
	//   - sec.ErrTokenMalformed for every other validation failure.
	VerifyToken(rawToken string) (*sec.AuthClaims, error)
}

// Config tunes the service's identity and session behavior per deployment.
type Config struct {
	// IdentityMode selects which field identifies an account at login:
	// config.IdentityEmail or config.IdentityUsername.
	IdentityMode string

	// EnforceRoles enables role assignment at registration and the admin
	// surface. When false every account is a plain user and roles are
	// never consulted.
	EnforceRoles bool

	// TokenTTL is the lifetime of issued tokens and of the stored
	// active-session key. Both expire together.
	TokenTTL time.Duration
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// login, or session validation logic must be reviewed by the security team.
type Service struct {
	config         Config
	userRepository UserRepository
	sessions       ActiveSessionRepository
	tokenProvider  TokenProvider
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	cfg Config,
	userRepo UserRepository,
	sessionRepo ActiveSessionRepository,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		config:         cfg,
		userRepository: userRepo,
		sessions:       sessionRepo,
		tokenProvider:  tokenProv,
	}
}

// NormalizeIdentity canonicalizes an email or username for storage and
// lookup: Unicode NFC followed by lower-casing, so "User@X.com" and
// "user@x.com" resolve to the same account.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(identity)))
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
	Role        string // Honored only when role enforcement is enabled.
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Normalizes the identity fields, enforces uniqueness with a
client-safe ALREADY_EXISTS rejection, and stores only the bcrypt hash of the
password. Registration never creates a session; the client must log in.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: apperr.AlreadyExists or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Canonicalize identities before any lookup or insert
	email := NormalizeIdentity(input.Email)
	username := NormalizeIdentity(input.Username)

	// Verify email uniqueness. Return a client-safe rejection.
	_, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.AlreadyExists("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe rejection.
	_, err = service.userRepository.FindByUsername(context, username)
	if err == nil {
		return nil, apperr.AlreadyExists("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Roles are inert unless enforcement is enabled for this deployment.
	role := sec.RoleUser
	if service.config.EnforceRoles && input.Role != "" {
		requested := sec.UserRole(input.Role)
		if !requested.IsValid() {
			return nil, apperr.ValidationError("Invalid role")
		}
		role = requested
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         role,
	}

	// Persist the user to the database. A concurrent duplicate insert
	// surfaces here as AlreadyExists through the unique constraints.
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.HasCode(err, apperr.CodeAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identity string // Email or username, per the configured identity mode.
	Password string
}

/*
Login validates user credentials and establishes the account's single
active session.

Description: Resolves the account by the configured identity field, performs
constant-time password comparison, signs a fresh token, and durably stores it
as THE active session before anything is returned. The store overwrite is
what invalidates any session a previous device still holds: concurrent
logins resolve last-write-wins and the loser is force-logged-out on its next
request.

Both lookup failure and password mismatch yield the identical
INVALID_CREDENTIALS rejection to prevent account enumeration.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: The fresh token plus the authenticated account
  - error: apperr.InvalidCredentials or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {

	// Resolve the account by the deployment's identity field
	identity := NormalizeIdentity(input.Identity)

	var user *User
	var err error
	switch service.config.IdentityMode {
	case config.IdentityUsername:
		user, err = service.userRepository.FindByUsername(context, identity)
	default:
		user, err = service.userRepository.FindByEmail(context, identity)
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.InvalidCredentials()
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	// Sign the token that will be this account's one live session
	token, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), service.config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// The write must commit before the token is handed out. If it fails the
	// token is never returned, so no session exists that the validator
	// would not recognize.
	if err := service.sessions.Set(context, user.ID, token, service.config.TokenTTL); err != nil {
		return nil, fmt.Errorf("auth_service_session_set_failed: %w", err)
	}

	return &LoginSession{
		Token: token,
		User:  user,
	}, nil
}

/*
Logout revokes the account's active session.

Description: Removes the stored active token, after which every copy of it
fails validation. Reaching this method requires passing the session
validator, so a second logout with the same token is rejected upstream as
FORCE_LOGOUT rather than arriving here.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Revocation failures (the client may retry; the delete is idempotent)
*/
func (service *Service) Logout(context context.Context, userID string) error {

	// Clear the active session key
	if err := service.sessions.Clear(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Validation

/*
Authenticate resolves a raw bearer token into validated claims.

Description: Implements the ordered session checks behind every protected
route. The expiry check runs first and wins even when the stored active
token still matches, so an expired token is always EXPIRED_TOKEN, never
FORCE_LOGOUT.

 1. Signature/expiry: malformed -> INVALID_TOKEN, expired -> EXPIRED_TOKEN.
 2. The referenced account must exist -> INVALID_TOKEN otherwise.
 3. The presented token must equal the stored active token byte-for-byte.
    Mismatch or absence means this session was superseded or revoked ->
    FORCE_LOGOUT, the signal that tells clients to purge their credentials.

Parameters:
  - context: context.Context
  - rawToken: string

Returns:
  - *sec.AuthClaims: Validated claims for the request context
  - error: apperr values carrying the contractual code and status
*/
func (service *Service) Authenticate(context context.Context, rawToken string) (*sec.AuthClaims, error) {

	// 1. Cryptographic verification: signature, structure, and expiry
	claims, err := service.tokenProvider.VerifyToken(rawToken)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.ExpiredToken()
		}
		return nil, apperr.InvalidToken()
	}

	// 2. The account the token references must still exist
	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	// 3. Single-active-session check: the presented token must be THE
	// stored token. Redis connectivity failures are internal errors, not
	// authentication verdicts.
	activeToken, err := service.sessions.Get(context, user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}

	if activeToken == "" || activeToken != rawToken {
		return nil, apperr.ForceLogout()
	}

	return claims, nil
}

// # Administrative Queries

// Stats summarizes account activity for the administrative dashboard.
type Stats struct {
	TotalUsers int64 `json:"total_users"`
}

/*
ListUsers returns a page of registered accounts, newest first.

Parameters:
  - context: context.Context
  - limit: int (clamped to 1..100)
  - offset: int

Returns:
  - []*User: Account entities
  - error: Storage failures
*/
func (service *Service) ListUsers(context context.Context, limit, offset int) ([]*User, error) {

	// Clamp pagination to sane bounds
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := service.userRepository.List(context, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_users_failed: %w", err)
	}

	return users, nil
}

/*
GetStats returns aggregate account metrics.

Parameters:
  - context: context.Context

Returns:
  - *Stats: Aggregates
  - error: Storage failures
*/
func (service *Service) GetStats(context context.Context) (*Stats, error) {

	total, err := service.userRepository.Count(context)
	if err != nil {
		return nil, fmt.Errorf("auth_service_stats_failed: %w", err)
	}

	return &Stats{TotalUsers: total}, nil
}
