// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/authentication"
)

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=viewer admin owner"`
}

type API struct {
	service ServiceInterface
	guard   GuardInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Routes lists the organization endpoints with the roles they require,
// creating and listing organizations only needs an authenticated caller.
func (a *API) Routes() []authorization.Route {
	return []authorization.Route{
		{
			Requirement: authorization.Requirement{Method: http.MethodPost, Pattern: "/api/v0/orgs"},
			Handler:     a.handleCreate,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodGet, Pattern: "/api/v0/orgs"},
			Handler:     a.handleList,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodGet, Pattern: "/api/v0/orgs/{orgId}", Roles: authorization.AtLeast(authorization.RoleViewer)},
			Handler:     a.handleGet,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodGet, Pattern: "/api/v0/orgs/{orgId}/members", Roles: authorization.AtLeast(authorization.RoleViewer)},
			Handler:     a.handleListMembers,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodPost, Pattern: "/api/v0/orgs/{orgId}/members", Roles: []authorization.Role{authorization.RoleOwner}},
			Handler:     a.handleAddMember,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodDelete, Pattern: "/api/v0/orgs/{orgId}/members/{userId}", Roles: []authorization.Role{authorization.RoleOwner}},
			Handler:     a.handleRemoveMember,
		},
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	a.guard.Mount(mux, a.Routes())
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleCreate")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		a.writeError(w, status.Error(codes.Unauthenticated, "unauthorized"))
		return
	}

	var req CreateOrganizationRequest
	if err := types.DecodeJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	org, err := a.service.CreateOrganization(ctx, userID, req.Name)
	if err != nil {
		a.logger.Errorf("failed to create organization: %v", err)
		a.writeError(w, status.Error(codes.Internal, "failed to create organization"))
		return
	}

	a.writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleList")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		a.writeError(w, status.Error(codes.Unauthenticated, "unauthorized"))
		return
	}

	orgs, err := a.service.ListOrganizations(ctx, userID)
	if err != nil {
		a.logger.Errorf("failed to list organizations of %s: %v", userID, err)
		a.writeError(w, status.Error(codes.Internal, "failed to list organizations"))
		return
	}

	a.writeJSON(w, http.StatusOK, orgs)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleGet")
	defer span.End()

	orgID, _ := authorization.OrgIDFromContext(ctx)

	org, err := a.service.GetOrganization(ctx, orgID)
	if err != nil {
		a.writeError(w, a.statusFromError(err, "failed to get organization"))
		return
	}

	a.writeJSON(w, http.StatusOK, org)
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleListMembers")
	defer span.End()

	orgID, _ := authorization.OrgIDFromContext(ctx)

	members, err := a.service.ListMembers(ctx, orgID)
	if err != nil {
		a.writeError(w, a.statusFromError(err, "failed to list members"))
		return
	}

	a.writeJSON(w, http.StatusOK, members)
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleAddMember")
	defer span.End()

	actorID, _ := authentication.GetUserID(ctx)
	orgID, _ := authorization.OrgIDFromContext(ctx)

	var req AddMemberRequest
	if err := types.DecodeJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	m, err := a.service.AddMember(ctx, actorID, orgID, req.UserID, authorization.Role(req.Role))
	if err != nil {
		a.writeError(w, a.statusFromError(err, "failed to add member"))
		return
	}

	a.writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleRemoveMember")
	defer span.End()

	actorID, _ := authentication.GetUserID(ctx)
	orgID, _ := authorization.OrgIDFromContext(ctx)

	m, err := a.service.RemoveMember(ctx, actorID, orgID, chi.URLParam(r, "userId"))
	if err != nil {
		a.writeError(w, a.statusFromError(err, "failed to remove member"))
		return
	}

	a.writeJSON(w, http.StatusOK, m)
}

func (a *API) statusFromError(err error, message string) error {
	switch {
	case errors.Is(err, ErrOrganizationNotFound):
		return status.Error(codes.NotFound, "organization not found")
	case errors.Is(err, ErrMemberNotFound):
		return status.Error(codes.NotFound, "member not found")
	case errors.Is(err, authorization.ErrUnknownRole):
		return status.Error(codes.InvalidArgument, "unknown role")
	default:
		a.logger.Errorf("%s: %v", message, err)
		return status.Error(codes.Internal, message)
	}
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

func NewAPI(service ServiceInterface, guard GuardInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.guard = guard
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
