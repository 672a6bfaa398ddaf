// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/openfga"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
	"github.com/canonical/task-manager/pkg/audit"
	"github.com/canonical/task-manager/pkg/authentication"
)

type fixture struct {
	mux     *chi.Mux
	storage *storage.MemoryStorage
	audit   *audit.Service
	orgID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	s := storage.NewMemoryStorage(tracer, monitor, logger)
	auditService := audit.NewService(s, tracer, monitor, logger)
	authz := authorization.NewAuthorizer(openfga.NewNoopClient(tracer, monitor, logger), tracer, monitor, logger)
	service := NewService(s, authz, auditService, tracer, monitor, logger)

	org, err := service.CreateOrganization(context.Background(), "u1", "acme")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	if _, err := service.AddMember(context.Background(), "u1", org.ID, "u2", authorization.RoleViewer); err != nil {
		t.Fatalf("failed to add viewer: %v", err)
	}

	guard := authorization.NewGuard(authorization.NewStorageResolver(s, tracer, monitor, logger), "orgs", tracer, monitor, logger)

	mux := chi.NewMux()
	NewAPI(service, guard, tracer, monitor, logger).RegisterEndpoints(mux)

	return &fixture{mux: mux, storage: s, audit: auditService, orgID: org.ID}
}

func (f *fixture) do(subject, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	req = req.WithContext(authentication.WithIdentity(req.Context(), authentication.Identity{SubjectID: subject}))

	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)

	return rr
}

func TestAPI_Members(t *testing.T) {
	f := newFixture(t)
	members := "/api/v0/orgs/" + f.orgID + "/members"

	tests := []struct {
		name           string
		subject        string
		method         string
		target         string
		body           string
		expectedStatus int
	}{
		{
			name:           "viewer reads the organization",
			subject:        "u2",
			method:         http.MethodGet,
			target:         "/api/v0/orgs/" + f.orgID,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "stranger cannot read the organization",
			subject:        "u9",
			method:         http.MethodGet,
			target:         "/api/v0/orgs/" + f.orgID,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "viewer lists members",
			subject:        "u2",
			method:         http.MethodGet,
			target:         members,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "viewer cannot add members",
			subject:        "u2",
			method:         http.MethodPost,
			target:         members,
			body:           `{"userId":"u3","role":"viewer"}`,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "owner adds a member",
			subject:        "u1",
			method:         http.MethodPost,
			target:         members,
			body:           `{"userId":"u3","role":"admin"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "owner sends an unknown role",
			subject:        "u1",
			method:         http.MethodPost,
			target:         members,
			body:           `{"userId":"u3","role":"root"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "owner sends a malformed body",
			subject:        "u1",
			method:         http.MethodPost,
			target:         members,
			body:           `{"userId":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "owner removes a missing member",
			subject:        "u1",
			method:         http.MethodDelete,
			target:         members + "/u9",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "owner removes the viewer",
			subject:        "u1",
			method:         http.MethodDelete,
			target:         members + "/u2",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "removed viewer loses access",
			subject:        "u2",
			method:         http.MethodGet,
			target:         "/api/v0/orgs/" + f.orgID,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(tt.subject, tt.method, tt.target, tt.body)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}

	m, err := f.storage.GetMembership(context.Background(), f.orgID, "u3")
	if err != nil || m.Role != "admin" {
		t.Fatalf("expected u3 to be admin, got %+v, %v", m, err)
	}

	entries, err := f.audit.Recent(context.Background(), f.orgID, 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}

	expected := []string{ActionMemberRemove, ActionMemberAdd, ActionMemberAdd, ActionOrgCreate}
	if strings.Join(actions, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected audit actions %v, got %v", expected, actions)
	}
}

func TestAPI_Organizations(t *testing.T) {
	f := newFixture(t)

	rr := f.do("u5", http.MethodPost, "/api/v0/orgs", `{"name":"globex"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var org types.Organization
	if err := json.NewDecoder(rr.Body).Decode(&org); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	m, err := f.storage.GetMembership(context.Background(), org.ID, "u5")
	if err != nil || m.Role != authorization.RoleOwner.String() {
		t.Fatalf("expected creator to own the organization, got %+v, %v", m, err)
	}

	if rr := f.do("u5", http.MethodPost, "/api/v0/orgs", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing name, got %d", rr.Code)
	}

	rr = f.do("u5", http.MethodGet, "/api/v0/orgs", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var orgs []*types.Organization
	if err := json.NewDecoder(rr.Body).Decode(&orgs); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if len(orgs) != 1 || orgs[0].ID != org.ID {
		t.Fatalf("expected only %s, got %+v", org.ID, orgs)
	}
}
