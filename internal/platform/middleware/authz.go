// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskora/taskora/internal/platform/apperr"
	"github.com/taskora/taskora/internal/platform/constants"
	"github.com/taskora/taskora/internal/platform/ctxutil"
	"github.com/taskora/taskora/internal/platform/respond"
	"github.com/taskora/taskora/internal/platform/sec"
)

// # Session Validation

// SessionAuthenticator resolves a raw bearer token into validated claims.
//
// Implementations own the full verification pipeline: signature and expiry
// checks, account existence, and the comparison of the presented token
// against the account's single active session. Failures MUST be returned as
// apperr values so the transport layer can map them to the contractual
// status codes.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*sec.AuthClaims, error)
}

/*
RequireSession guards a route group with bearer-token session validation.

Validation proceeds in strict order and stops at the first failure:

 1. The Authorization header must be present with a Bearer scheme,
    otherwise the request is rejected with MISSING_TOKEN (401).
 2. The token must carry a valid signature and be unexpired, otherwise
    INVALID_TOKEN or EXPIRED_TOKEN (401).
 3. The account referenced by the token must still exist, otherwise
    INVALID_TOKEN (401).
 4. The presented token must equal the account's currently active session
    token byte-for-byte. A mismatch means a newer login superseded this
    session and yields FORCE_LOGOUT (403), which instructs clients to
    purge their stored credentials.

Steps 2-4 are delegated to the SessionAuthenticator. On success the
validated claims are injected into the request context for downstream
handlers.

Parameters:
  - authn: the authenticator implementing token-to-claims resolution.

Returns:
  - A middleware constructor compatible with chi's Use/With.
*/
func RequireSession(authn SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. The Authorization header must be present
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				respond.Error(writer, request, apperr.MissingToken())
				return
			}

			// 2. The scheme must be Bearer with a non-empty token
			scheme, rawToken, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, constants.BearerPrefix) || rawToken == "" {
				respond.Error(writer, request, apperr.InvalidToken())
				return
			}

			// 3. Delegate signature, expiry, account, and active-session checks
			claims, err := authn.Authenticate(request.Context(), rawToken)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// 4. Expose the validated identity to downstream handlers
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Role Enforcement

/*
RequireRole restricts a route group to sessions whose role meets the
minimum required level. It must be mounted AFTER RequireSession, since it
reads the claims that RequireSession injects.

Parameters:
  - minimum: the lowest role allowed through (e.g. sec.RoleAdmin).

Returns:
  - A middleware constructor that rejects insufficient roles with 403.
*/
func RequireRole(minimum sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				// RequireSession was not mounted upstream; treat as unauthenticated.
				respond.Error(writer, request, apperr.MissingToken())
				return
			}

			role := sec.UserRole(claims.Role)
			if !role.AtLeast(minimum) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
