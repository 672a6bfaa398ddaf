// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/openfga"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func expectSpan(tracer *MockTracingInterface, name string) {
	tracer.EXPECT().Start(gomock.Any(), name).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	)
}

func TestAuthorizer_Check(t *testing.T) {
	user := UserTuple("123")
	relation := ADMIN_RELATION
	object := OrganizationTuple("456")

	testCases := []struct {
		name           string
		setupMocks     func(*MockAuthzClientInterface)
		expectedResult bool
		expectedErr    bool
	}{
		{
			name: "success - allowed",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object).Return(true, nil)
			},
			expectedResult: true,
		},
		{
			name: "success - not allowed",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object).Return(false, nil)
			},
			expectedResult: false,
		},
		{
			name: "error - client error",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object).Return(false, errors.New("client error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, logging.NewNoopLogger())

			expectSpan(mockTracer, "authorization.Authorizer.Check")
			tc.setupMocks(mockClient)

			result, err := a.Check(context.Background(), user, relation, object)

			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if result != tc.expectedResult {
				t.Errorf("expected result %v, got %v", tc.expectedResult, result)
			}
		})
	}
}

func TestAuthorizer_AssignOrgRole(t *testing.T) {
	orgID := "org-1"
	userID := "user-1"
	user := UserTuple(userID)
	object := OrganizationTuple(orgID)

	testCases := []struct {
		name        string
		role        Role
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr bool
	}{
		{
			name: "success - new relation",
			role: RoleAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").Return(nil, "", nil)
				mockClient.EXPECT().WriteTuple(gomock.Any(), user, ADMIN_RELATION, object).Return(nil)
			},
		},
		{
			name: "success - previous relation replaced",
			role: RoleOwner,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				gomock.InOrder(
					mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").
						Return([]openfga.Tuple{*openfga.NewTuple(user, VIEWER_RELATION, object)}, "", nil),
					mockClient.EXPECT().DeleteTuple(gomock.Any(), user, VIEWER_RELATION, object).Return(nil),
					mockClient.EXPECT().WriteTuple(gomock.Any(), user, OWNER_RELATION, object).Return(nil),
				)
			},
		},
		{
			name: "success - relation already present",
			role: RoleViewer,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").
					Return([]openfga.Tuple{*openfga.NewTuple(user, VIEWER_RELATION, object)}, "", nil)
			},
		},
		{
			name: "success - multiple pages",
			role: RoleViewer,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				gomock.InOrder(
					mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").
						Return([]openfga.Tuple{*openfga.NewTuple(user, OWNER_RELATION, object)}, "token1", nil),
					mockClient.EXPECT().DeleteTuple(gomock.Any(), user, OWNER_RELATION, object).Return(nil),
					mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "token1").
						Return([]openfga.Tuple{*openfga.NewTuple(user, ADMIN_RELATION, object)}, "", nil),
					mockClient.EXPECT().DeleteTuple(gomock.Any(), user, ADMIN_RELATION, object).Return(nil),
					mockClient.EXPECT().WriteTuple(gomock.Any(), user, VIEWER_RELATION, object).Return(nil),
				)
			},
		},
		{
			name:        "error - unknown role",
			role:        Role("superuser"),
			setupMocks:  func(*MockAuthzClientInterface) {},
			expectedErr: true,
		},
		{
			name: "error - read tuples error",
			role: RoleAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").Return(nil, "", errors.New("read error"))
			},
			expectedErr: true,
		},
		{
			name: "error - write tuple error",
			role: RoleAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").Return(nil, "", nil)
				mockClient.EXPECT().WriteTuple(gomock.Any(), user, ADMIN_RELATION, object).Return(errors.New("write error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, logging.NewNoopLogger())

			expectSpan(mockTracer, "authorization.Authorizer.AssignOrgRole")
			tc.setupMocks(mockClient)

			err := a.AssignOrgRole(context.Background(), orgID, userID, tc.role)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAuthorizer_RemoveOrgRole(t *testing.T) {
	orgID := "org-1"
	userID := "user-1"
	user := UserTuple(userID)
	object := OrganizationTuple(orgID)

	testCases := []struct {
		name        string
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr bool
	}{
		{
			name: "success - relations deleted",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").
					Return([]openfga.Tuple{*openfga.NewTuple(user, ADMIN_RELATION, object)}, "", nil)
				mockClient.EXPECT().DeleteTuple(gomock.Any(), user, ADMIN_RELATION, object).Return(nil)
			},
		},
		{
			name: "success - no relations",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").Return([]openfga.Tuple{}, "", nil)
			},
		},
		{
			name: "error - delete tuple error",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().ReadTuples(gomock.Any(), user, "", object, "").
					Return([]openfga.Tuple{*openfga.NewTuple(user, OWNER_RELATION, object)}, "", nil)
				mockClient.EXPECT().DeleteTuple(gomock.Any(), user, OWNER_RELATION, object).Return(errors.New("delete error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, logging.NewNoopLogger())

			expectSpan(mockTracer, "authorization.Authorizer.RemoveOrgRole")
			tc.setupMocks(mockClient)

			err := a.RemoveOrgRole(context.Background(), orgID, userID)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			} else if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
