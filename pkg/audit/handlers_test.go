// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
	"github.com/canonical/task-manager/pkg/authentication"
)

func TestAPI_Routes(t *testing.T) {
	api := NewAPI(nil, nil, nil, nil, nil)

	for _, route := range api.Routes() {
		if route.Method != http.MethodGet {
			t.Errorf("%s: expected a read only route", route.Pattern)
		}

		if len(route.Roles) != 2 || route.Roles[0] != authorization.RoleAdmin || route.Roles[1] != authorization.RoleOwner {
			t.Errorf("%s: expected admin or owner, got %v", route.Pattern, route.Roles)
		}
	}
}

func TestAPI_AuditLogs(t *testing.T) {
	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	s := storage.NewMemoryStorage(tracer, monitor, logger)
	ctx := context.Background()

	org, _, err := s.CreateOrganization(ctx, &types.Organization{Name: "acme"}, "owner")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	for user, role := range map[string]string{"admin": "admin", "viewer": "viewer"} {
		if _, err := s.UpsertMembership(ctx, org.ID, user, role); err != nil {
			t.Fatalf("failed to add %s: %v", user, err)
		}
	}

	service := NewService(s, tracer, monitor, logger)
	for i := 1; i <= 25; i++ {
		if _, err := service.Record(ctx, org.ID, "owner", "member:add", fmt.Sprintf("t%d", i), nil); err != nil {
			t.Fatalf("failed to seed entry: %v", err)
		}
	}

	guard := authorization.NewGuard(authorization.NewStorageResolver(s, tracer, monitor, logger), "audit", tracer, monitor, logger)

	mux := chi.NewMux()
	NewAPI(service, guard, tracer, monitor, logger).RegisterEndpoints(mux)

	tests := []struct {
		name           string
		subject        string
		target         string
		expectedStatus int
		expectedCount  int
		expectedMeta   *Meta
	}{
		{
			name:           "owner lists the second page",
			subject:        "owner",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs?page=2&limit=10",
			expectedStatus: http.StatusOK,
			expectedCount:  10,
			expectedMeta:   &Meta{Total: 25, Page: 2, Limit: 10, TotalPages: 3},
		},
		{
			name:           "admin with unparsable values gets the defaults",
			subject:        "admin",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs?page=abc&limit=",
			expectedStatus: http.StatusOK,
			expectedCount:  10,
			expectedMeta:   &Meta{Total: 25, Page: 1, Limit: 10, TotalPages: 3},
		},
		{
			name:           "viewer is denied",
			subject:        "viewer",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "stranger is denied",
			subject:        "stranger",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "recent entries",
			subject:        "admin",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs/recent?limit=3",
			expectedStatus: http.StatusOK,
			expectedCount:  3,
		},
		{
			name:           "recent entries default to everything up to the cap",
			subject:        "owner",
			target:         "/api/v0/orgs/" + org.ID + "/audit-logs/recent",
			expectedStatus: http.StatusOK,
			expectedCount:  25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(authentication.WithIdentity(req.Context(), authentication.Identity{SubjectID: tt.subject}))

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			if tt.expectedStatus != http.StatusOK {
				return
			}

			if tt.expectedMeta == nil {
				var entries []*types.AuditLogEntry
				if err := json.NewDecoder(rr.Body).Decode(&entries); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}

				if len(entries) != tt.expectedCount {
					t.Fatalf("expected %d entries, got %d", tt.expectedCount, len(entries))
				}
				return
			}

			var page Page
			if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}

			if len(page.Data) != tt.expectedCount || page.Meta != *tt.expectedMeta {
				t.Fatalf("unexpected page: %d entries, meta %+v", len(page.Data), page.Meta)
			}
		})
	}
}

func TestAPI_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockServiceInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	expectSpan(mockTracer, "audit.API.handleList")
	mockService.EXPECT().List(gomock.Any(), "", 0, 0).Return(nil, errors.New("db down"))

	api := NewAPI(mockService, nil, mockTracer, mockMonitor, logging.NewNoopLogger())

	rr := httptest.NewRecorder()
	api.handleList(rr, httptest.NewRequest(http.MethodGet, "/api/v0/orgs/o1/audit-logs", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
