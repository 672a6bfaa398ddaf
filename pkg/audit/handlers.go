// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

type API struct {
	service ServiceInterface
	guard   GuardInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Routes lists the audit endpoints with the roles they require.
func (a *API) Routes() []authorization.Route {
	adminOrOwner := []authorization.Role{authorization.RoleAdmin, authorization.RoleOwner}

	return []authorization.Route{
		{
			Requirement: authorization.Requirement{Method: http.MethodGet, Pattern: "/api/v0/orgs/{orgId}/audit-logs", Roles: adminOrOwner},
			Handler:     a.handleList,
		},
		{
			Requirement: authorization.Requirement{Method: http.MethodGet, Pattern: "/api/v0/orgs/{orgId}/audit-logs/recent", Roles: adminOrOwner},
			Handler:     a.handleRecent,
		},
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	a.guard.Mount(mux, a.Routes())
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "audit.API.handleList")
	defer span.End()

	orgID, _ := authorization.OrgIDFromContext(ctx)

	page, err := a.service.List(ctx, orgID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		a.logger.Errorf("failed to list audit logs of %s: %v", orgID, err)
		a.writeError(w, status.Error(codes.Internal, "failed to list audit logs"))
		return
	}

	a.writeJSON(w, http.StatusOK, page)
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "audit.API.handleRecent")
	defer span.End()

	orgID, _ := authorization.OrgIDFromContext(ctx)

	entries, err := a.service.Recent(ctx, orgID, queryInt(r, "limit"))
	if err != nil {
		a.logger.Errorf("failed to list recent audit logs of %s: %v", orgID, err)
		a.writeError(w, status.Error(codes.Internal, "failed to list audit logs"))
		return
	}

	a.writeJSON(w, http.StatusOK, entries)
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

// queryInt returns 0 for missing or unparsable values, the service treats it as unset.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}

	return v
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
