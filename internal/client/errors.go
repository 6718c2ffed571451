// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned when an authenticated call is attempted
// with no session in the local cache.
var ErrNotAuthenticated = errors.New("client: not logged in")

// Error codes the client branches on. They mirror the server's taxonomy.
const (
	CodeForceLogout  = "FORCE_LOGOUT"
	CodeMissingToken = "MISSING_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeExpiredToken = "EXPIRED_TOKEN"
)

// APIError is a server rejection decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// IsForceLogout reports whether this rejection is the session-supersession
// signal. It is the ONLY error the client reacts to destructively: the local
// session cache is purged and the state machine flips to unauthenticated.
func (e *APIError) IsForceLogout() bool {
	return e.Code == CodeForceLogout
}

// Retryable reports whether the request may be retried after logging in
// again. Plain authentication failures (missing, malformed, or expired
// token) qualify; force-logout does too, but only after the purge.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusUnauthorized || e.IsForceLogout()
}

// AsAPIError extracts the *APIError from err's chain, or nil.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
