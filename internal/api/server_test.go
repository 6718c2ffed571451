// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskora/taskora/internal/api"
	"github.com/taskora/taskora/internal/auth"
	"github.com/taskora/taskora/internal/platform/apperr"
	"github.com/taskora/taskora/internal/platform/config"
	"github.com/taskora/taskora/internal/platform/sec"
	"github.com/taskora/taskora/internal/task"
)

// # In-Memory Stores

type memUsers struct {
	byID map[string]*auth.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) Create(_ context.Context, user *auth.User) error {
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]*auth.User, error) {
	users := make([]*auth.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	return users, nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) { return int64(len(m.byID)), nil }

type memTasks struct {
	byID map[string]*task.Task
}

func (m *memTasks) ListByOwner(_ context.Context, ownerID string) ([]*task.Task, error) {
	out := make([]*task.Task, 0)
	for _, t := range m.byID {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasks) FindByOwner(_ context.Context, ownerID, taskID string) (*task.Task, error) {
	if t, ok := m.byID[taskID]; ok && t.UserID == ownerID {
		copied := *t
		return &copied, nil
	}
	return nil, apperr.NotFound("Task")
}

func (m *memTasks) Create(_ context.Context, t *task.Task) error {
	copied := *t
	m.byID[t.ID] = &copied
	return nil
}

func (m *memTasks) Update(_ context.Context, t *task.Task) error {
	if existing, ok := m.byID[t.ID]; ok && existing.UserID == t.UserID {
		copied := *t
		m.byID[t.ID] = &copied
		return nil
	}
	return apperr.NotFound("Task")
}

func (m *memTasks) Delete(_ context.Context, ownerID, taskID string) error {
	if t, ok := m.byID[taskID]; ok && t.UserID == ownerID {
		delete(m.byID, taskID)
		return nil
	}
	return apperr.NotFound("Task")
}

// uniqueTokens wraps the real token service but salts each token with a
// counter claim, so back-to-back logins in the same second never collide.
type uniqueTokens struct {
	inner   *sec.TokenService
	counter int
}

func (u *uniqueTokens) GenerateAccessToken(userID, username, role string, ttl time.Duration) (string, error) {
	u.counter++
	return u.inner.GenerateAccessToken(userID, fmt.Sprintf("%s#%d", username, u.counter), role, ttl)
}

func (u *uniqueTokens) VerifyToken(rawToken string) (*sec.AuthClaims, error) {
	return u.inner.VerifyToken(rawToken)
}

// # Harness

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, enforceRoles bool) http.Handler {
	t.Helper()

	redisServer := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	jwtSvc, err := sec.NewTokenService("integration-test-secret-0123456789", "taskora.test")
	require.NoError(t, err)

	authService := auth.NewService(auth.Config{
		IdentityMode: config.IdentityEmail,
		EnforceRoles: enforceRoles,
		TokenTTL:     time.Hour,
	}, &memUsers{byID: make(map[string]*auth.User)}, auth.NewSessionRepository(redisClient), &uniqueTokens{inner: jwtSvc})

	taskService := task.NewService(&memTasks{byID: make(map[string]*task.Task)}, testLogger())

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, testLogger())

	cfg := &config.Config{
		ServerPort:   "0",
		Environment:  "development",
		IdentityMode: config.IdentityEmail,
		EnforceRoles: enforceRoles,
	}

	server := api.NewServer(context.Background(), cfg, testLogger(), authService, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Task:      task.NewHandler(taskService),
	})

	return server.Router()
}

type apiResponse struct {
	status int
	data   json.RawMessage
	code   string
	errMsg string
}

func call(t *testing.T, handler http.Handler, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
		Code  string          `json:"code"`
	}
	if recorder.Body.Len() > 0 && strings.Contains(recorder.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	}

	return apiResponse{
		status: recorder.Code,
		data:   envelope.Data,
		code:   envelope.Code,
		errMsg: envelope.Error,
	}
}

func registerAndLogin(t *testing.T, handler http.Handler, email, username string) string {
	t.Helper()

	response := call(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, response.status)

	return login(t, handler, email)
}

func login(t *testing.T, handler http.Handler, email string) string {
	t.Helper()

	response := call(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, response.status)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(response.data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

// # Scenarios

/*
TestTwoDeviceScenario walks the canonical end-to-end flow: a second login
invalidates the first device's session mid-use, the stale device gets the
force-logout signal, and the new device continues untouched.
*/
func TestTwoDeviceScenario(t *testing.T) {
	handler := newTestServer(t, false)

	deviceA := registerAndLogin(t, handler, "megumi@example.com", "megumi")

	// Device A works: creates and sees a task.
	created := call(t, handler, http.MethodPost, "/api/v1/tasks", deviceA, map[string]string{
		"title": "Buy milk",
	})
	require.Equal(t, http.StatusCreated, created.status)

	listed := call(t, handler, http.MethodGet, "/api/v1/tasks", deviceA, nil)
	require.Equal(t, http.StatusOK, listed.status)

	// Device B logs in with the same account.
	deviceB := login(t, handler, "megumi@example.com")
	require.NotEqual(t, deviceA, deviceB)

	// Device A's very next request is rejected with the distinct signal.
	stale := call(t, handler, http.MethodGet, "/api/v1/tasks", deviceA, nil)
	assert.Equal(t, http.StatusForbidden, stale.status)
	assert.Equal(t, "FORCE_LOGOUT", stale.code)
	assert.Equal(t, "Session expired, please log in again", stale.errMsg)

	// Device B sees the same account's data, unaffected.
	fresh := call(t, handler, http.MethodGet, "/api/v1/tasks", deviceB, nil)
	require.Equal(t, http.StatusOK, fresh.status)

	var tasks []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(fresh.data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)

	// Logout revokes device B; the token stops validating.
	loggedOut := call(t, handler, http.MethodPost, "/api/v1/auth/logout", deviceB, nil)
	require.Equal(t, http.StatusOK, loggedOut.status)

	afterLogout := call(t, handler, http.MethodGet, "/api/v1/tasks", deviceB, nil)
	assert.Equal(t, http.StatusForbidden, afterLogout.status)
	assert.Equal(t, "FORCE_LOGOUT", afterLogout.code)
}

/*
TestAuthHeaderRejections covers the unauthenticated request taxonomy at the
transport level.
*/
func TestAuthHeaderRejections(t *testing.T) {
	handler := newTestServer(t, false)

	t.Run("missing_token", func(t *testing.T) {
		response := call(t, handler, http.MethodGet, "/api/v1/tasks", "", nil)
		assert.Equal(t, http.StatusUnauthorized, response.status)
		assert.Equal(t, "MISSING_TOKEN", response.code)
	})

	t.Run("garbage_token", func(t *testing.T) {
		response := call(t, handler, http.MethodGet, "/api/v1/tasks", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, response.status)
		assert.Equal(t, "INVALID_TOKEN", response.code)
	})
}

/*
TestTaskOwnershipIsolation verifies foreign tasks 404 uniformly across verbs.
*/
func TestTaskOwnershipIsolation(t *testing.T) {
	handler := newTestServer(t, false)

	alice := registerAndLogin(t, handler, "alice@example.com", "alice")
	bob := registerAndLogin(t, handler, "bob@example.com", "bob")

	created := call(t, handler, http.MethodPost, "/api/v1/tasks", alice, map[string]string{
		"title": "Alice's secret",
	})
	require.Equal(t, http.StatusCreated, created.status)

	var aliceTask struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(created.data, &aliceTask))

	// Bob cannot see, update, or delete it — always 404, never 403.
	update := call(t, handler, http.MethodPut, "/api/v1/tasks/"+aliceTask.ID, bob, map[string]string{
		"status": "completed",
	})
	assert.Equal(t, http.StatusNotFound, update.status)

	remove := call(t, handler, http.MethodDelete, "/api/v1/tasks/"+aliceTask.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, remove.status)

	bobList := call(t, handler, http.MethodGet, "/api/v1/tasks", bob, nil)
	require.Equal(t, http.StatusOK, bobList.status)

	var bobTasks []json.RawMessage
	require.NoError(t, json.Unmarshal(bobList.data, &bobTasks))
	assert.Empty(t, bobTasks)
}

/*
TestTaskDeleteConfirmation: deleting one's own task returns 200 with a
confirmation body, the contract the mobile client surfaces to the user.
*/
func TestTaskDeleteConfirmation(t *testing.T) {
	handler := newTestServer(t, false)
	token := registerAndLogin(t, handler, "megumi@example.com", "megumi")

	created := call(t, handler, http.MethodPost, "/api/v1/tasks", token, map[string]string{
		"title": "Buy milk",
	})
	require.Equal(t, http.StatusCreated, created.status)

	var createdTask struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(created.data, &createdTask))

	removed := call(t, handler, http.MethodDelete, "/api/v1/tasks/"+createdTask.ID, token, nil)
	assert.Equal(t, http.StatusOK, removed.status)

	var confirmation struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(removed.data, &confirmation))
	assert.Equal(t, "Task deleted", confirmation.Message)

	// The task is gone for real.
	listed := call(t, handler, http.MethodGet, "/api/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, listed.status)

	var tasks []json.RawMessage
	require.NoError(t, json.Unmarshal(listed.data, &tasks))
	assert.Empty(t, tasks)
}

/*
TestProfileRoundTrip: the profile persisted at registration comes back
unchanged in the login payload, display name included.
*/
func TestProfileRoundTrip(t *testing.T) {
	handler := newTestServer(t, false)

	registered := call(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        "megumi@example.com",
		"username":     "megumi",
		"password":     "hunter2hunter2",
		"display_name": "Megumi K.",
	})
	require.Equal(t, http.StatusCreated, registered.status)

	loggedIn := call(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "megumi@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, loggedIn.status)

	type profile struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}

	var created profile
	require.NoError(t, json.Unmarshal(registered.data, &created))

	var session struct {
		User profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(loggedIn.data, &session))

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "megumi@example.com", created.Email)
	assert.Equal(t, "Megumi K.", created.DisplayName)
	assert.Equal(t, "user", created.Role)
	assert.Equal(t, created, session.User)
}

/*
TestRegisterValidation rejects malformed input before the service runs.
*/
func TestRegisterValidation(t *testing.T) {
	handler := newTestServer(t, false)

	response := call(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "not-an-email", "username": "x", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, response.status)
	assert.Equal(t, "VALIDATION_ERROR", response.code)
}

/*
TestLoginFailureContract: 400 INVALID_CREDENTIALS with an identical message
for unknown accounts and wrong passwords.
*/
func TestLoginFailureContract(t *testing.T) {
	handler := newTestServer(t, false)
	registerAndLogin(t, handler, "megumi@example.com", "megumi")

	unknown := call(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "hunter2hunter2",
	})
	wrongPass := call(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "megumi@example.com", "password": "wrong-password",
	})

	assert.Equal(t, http.StatusBadRequest, unknown.status)
	assert.Equal(t, http.StatusBadRequest, wrongPass.status)
	assert.Equal(t, "INVALID_CREDENTIALS", unknown.code)
	assert.Equal(t, unknown.errMsg, wrongPass.errMsg)
}

/*
TestAdminSurface: mounted only under role enforcement, gated by role.
*/
func TestAdminSurface(t *testing.T) {
	t.Run("disabled_means_absent", func(t *testing.T) {
		handler := newTestServer(t, false)
		token := registerAndLogin(t, handler, "megumi@example.com", "megumi")

		response := call(t, handler, http.MethodGet, "/api/v1/admin/stats", token, nil)
		assert.Equal(t, http.StatusNotFound, response.status)
	})

	t.Run("enabled_gates_by_role", func(t *testing.T) {
		handler := newTestServer(t, true)

		// An admin and a plain user.
		adminRegister := call(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email": "root@example.com", "username": "root", "password": "hunter2hunter2", "role": "admin",
		})
		require.Equal(t, http.StatusCreated, adminRegister.status)
		adminToken := login(t, handler, "root@example.com")

		userToken := registerAndLogin(t, handler, "megumi@example.com", "megumi")

		granted := call(t, handler, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
		assert.Equal(t, http.StatusOK, granted.status)

		denied := call(t, handler, http.MethodGet, "/api/v1/admin/stats", userToken, nil)
		assert.Equal(t, http.StatusForbidden, denied.status)
		assert.Equal(t, "FORBIDDEN", denied.code)
	})
}

/*
TestHealthProbes: liveness is unauthenticated and always 200.
*/
func TestHealthProbes(t *testing.T) {
	handler := newTestServer(t, false)

	response := call(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, response.status)
}
