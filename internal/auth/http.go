// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

/*
HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle, from account
creation to the establishment and revocation of the single active session.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Issues the bearer token that becomes the account's one live session.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskora/taskora/internal/platform/config"
	"github.com/taskora/taskora/internal/platform/middleware"
	requestutil "github.com/taskora/taskora/internal/platform/request"
	"github.com/taskora/taskora/internal/platform/respond"
	"github.com/taskora/taskora/internal/platform/sec"
	"github.com/taskora/taskora/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (Registration, Login,
// Logout) plus the role-gated administrative listing.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and returns the session token.
//   - POST /logout   : Revokes the active session (validated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Protected endpoints. Logout sits BEHIND the session validator: revoking
	// a session requires presenting the currently active token, so a token
	// that was already superseded or logged out gets the FORCE_LOGOUT
	// rejection instead of reaching the service.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(handler.authService))
		r.Post("/logout", handler.logout)
	})

	return router
}

// AdminRoutes returns the role-gated administrative surface.
//
// The caller mounts this only when role enforcement is enabled; deployments
// without it have no admin routes at all.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireSession(handler.authService))
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.listUsers)
	router.Get("/stats", handler.stats)

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, and persists
a new user profile to the database. No session is created; the client must
log in afterwards.

Request:
  - Body: registerRequest (Email, Username, Password, DisplayName, Role?)

Response:
  - 201: User: Created user profile
  - 400: ALREADY_EXISTS: Email or Username already registered
  - 400: VALIDATION_ERROR: Bad input
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Username(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		MaxLen(FieldDisplayName, input.DisplayName, 100)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Username:    input.Username,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Role:        input.Role,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes the single active session.

POST /api/v1/auth/login

Description: Verifies credentials against the configured identity field,
signs a fresh token, and durably stores it as the account's one live
session. Any session a previous device held stops validating from this
moment on.

Request:
  - Body: loginRequest (Email or Username per deployment, Password)

Response:
  - 200: LoginSession: {token, user}
  - 400: INVALID_CREDENTIALS: Unknown identity or wrong password (indistinguishable)
  - 500: INTERNAL_ERROR: The session could not be durably stored; no token is issued
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// Select the identity field per deployment configuration
	identity := input.Email
	identityField := FieldEmail
	if handler.authService.config.IdentityMode == config.IdentityUsername {
		identity = input.Username
		identityField = FieldUsername
	}

	validator := &validate.Validator{}
	validator.Required(identityField, identity).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Identity: identity,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Logout revokes the caller's active session.

POST /api/v1/auth/logout

Description: Clears the stored active token. Requires the currently active
token; superseded or already-revoked tokens are rejected by the session
validator before reaching this handler.

Response:
  - 200: Confirmation message
  - 401/403: Session validator rejections
  - 500: INTERNAL_ERROR: Revocation could not commit (safe to retry)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Logged out successfully"})
}

// # Administrative Endpoints

/*
listUsers returns a page of registered accounts, newest first.

GET /api/v1/admin/users?limit=&offset=

Response:
  - 200: []User
  - 403: FORBIDDEN: Caller is not an admin
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {

	limit, _ := strconv.Atoi(request.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(request.URL.Query().Get("offset"))

	users, err := handler.authService.ListUsers(request.Context(), limit, offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

/*
stats returns aggregate account metrics.

GET /api/v1/admin/stats

Response:
  - 200: Stats
  - 403: FORBIDDEN: Caller is not an admin
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {

	stats, err := handler.authService.GetStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}
