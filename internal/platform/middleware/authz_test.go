// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskora/taskora/internal/platform/apperr"
	"github.com/taskora/taskora/internal/platform/ctxutil"
	"github.com/taskora/taskora/internal/platform/middleware"
	"github.com/taskora/taskora/internal/platform/sec"
)

// fakeAuthenticator returns a canned verdict for every token.
type fakeAuthenticator struct {
	claims *sec.AuthClaims
	err    error

	// lastToken records what the middleware handed over.
	lastToken string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, rawToken string) (*sec.AuthClaims, error) {
	f.lastToken = rawToken
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Code, body.Error
}

/*
TestRequireSession_FailureTaxonomy verifies that every rejection carries the
contractual status code and machine-readable code the mobile client branches on.
*/
func TestRequireSession_FailureTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		authErr    error
		wantStatus int
		wantCode   string
	}{
		{"no_header", "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"wrong_scheme", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty_token", "Bearer ", nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"malformed_token", "Bearer garbage", apperr.InvalidToken(), http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired_token", "Bearer expired", apperr.ExpiredToken(), http.StatusUnauthorized, "EXPIRED_TOKEN"},
		{"superseded_session", "Bearer stale", apperr.ForceLogout(), http.StatusForbidden, "FORCE_LOGOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &fakeAuthenticator{err: tt.authErr}

			handler := middleware.RequireSession(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be reached")
			}))

			request := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			code, _ := decodeErrorBody(t, recorder)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

/*
TestRequireSession_ForceLogoutMessage pins the exact client-facing message for
the supersession signal; the mobile UI shows it verbatim.
*/
func TestRequireSession_ForceLogoutMessage(t *testing.T) {
	authn := &fakeAuthenticator{err: apperr.ForceLogout()}

	handler := middleware.RequireSession(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	request := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	request.Header.Set("Authorization", "Bearer superseded")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusForbidden, recorder.Code)
	code, message := decodeErrorBody(t, recorder)
	assert.Equal(t, "FORCE_LOGOUT", code)
	assert.Equal(t, "Session expired, please log in again", message)
}

/*
TestRequireSession_Success verifies claim injection and token pass-through.
*/
func TestRequireSession_Success(t *testing.T) {
	authn := &fakeAuthenticator{
		claims: &sec.AuthClaims{UserID: "user-1", Username: "megumi", Role: "user"},
	}

	var seen *sec.AuthClaims
	handler := middleware.RequireSession(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	request.Header.Set("Authorization", "Bearer the-live-token")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "the-live-token", authn.lastToken)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
}

/*
TestRequireRole gates by minimum role and rejects missing sessions.
*/
func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin_passes", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u", Role: "admin"})

		recorder := httptest.NewRecorder()
		middleware.RequireRole(sec.RoleAdmin)(next).ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("plain_user_forbidden", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u", Role: "user"})

		recorder := httptest.NewRecorder()
		middleware.RequireRole(sec.RoleAdmin)(next).ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("no_session", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin/users", nil)

		recorder := httptest.NewRecorder()
		middleware.RequireRole(sec.RoleAdmin)(next).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
