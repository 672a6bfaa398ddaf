// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/authentication"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=320"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type MeResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type API struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RegisterPublicEndpoints mounts the routes served without a bearer token.
func (a *API) RegisterPublicEndpoints(mux chi.Router) {
	mux.Post("/api/v0/auth/register", a.handleRegister)
	mux.Post("/api/v0/auth/login", a.handleLogin)
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/auth/me", a.handleMe)
	mux.Get("/api/v0/auth/search", a.handleSearch)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "accounts.API.handleRegister")
	defer span.End()

	var req RegisterRequest
	if err := types.DecodeJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	u, err := a.service.Register(ctx, req.Email, req.Password, req.DisplayName)
	if errors.Is(err, ErrEmailTaken) {
		a.writeError(w, status.Error(codes.AlreadyExists, ErrEmailTaken.Error()))
		return
	}

	if err != nil {
		a.logger.Errorf("failed to register user: %v", err)
		a.writeError(w, status.Error(codes.Internal, "failed to register user"))
		return
	}

	a.writeJSON(w, http.StatusCreated, u)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "accounts.API.handleLogin")
	defer span.End()

	var req LoginRequest
	if err := types.DecodeJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	token, err := a.service.Login(ctx, req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		a.writeError(w, status.Error(codes.InvalidArgument, ErrInvalidCredentials.Error()))
		return
	}

	if errors.Is(err, ErrLoginDisabled) {
		a.writeError(w, status.Error(codes.Unimplemented, ErrLoginDisabled.Error()))
		return
	}

	if err != nil {
		a.logger.Errorf("failed to log in: %v", err)
		a.writeError(w, status.Error(codes.Internal, "failed to log in"))
		return
	}

	a.writeJSON(w, http.StatusOK, token)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "accounts.API.handleMe")
	defer span.End()

	identity, ok := authentication.IdentityFromContext(r.Context())
	if !ok {
		a.writeError(w, status.Error(codes.Unauthenticated, "unauthorized"))
		return
	}

	a.writeJSON(
		w,
		http.StatusOK,
		MeResponse{
			ID:          identity.SubjectID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			IssuedAt:    identity.IssuedAt,
			ExpiresAt:   identity.ExpiresAt,
		},
	)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "accounts.API.handleSearch")
	defer span.End()

	if _, ok := authentication.GetUserID(ctx); !ok {
		a.writeError(w, status.Error(codes.Unauthenticated, "unauthorized"))
		return
	}

	term := r.URL.Query().Get("searchTerm")
	if term == "" {
		a.writeError(w, status.Error(codes.InvalidArgument, "searchTerm is required"))
		return
	}

	users, err := a.service.Search(ctx, term)
	if err != nil {
		a.logger.Errorf("failed to search users: %v", err)
		a.writeError(w, status.Error(codes.Internal, "failed to search users"))
		return
	}

	a.writeJSON(w, http.StatusOK, users)
}

func (a *API) writeJSON(w http.ResponseWriter, code int, body any) {
	if err := types.WriteJSON(w, code, body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	if err := types.WriteError(w, err); err != nil {
		a.logger.Errorf("failed to encode error response: %v", err)
	}
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
