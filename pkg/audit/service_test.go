// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func expectSpan(tracer *MockTracingInterface, name string) *gomock.Call {
	return tracer.EXPECT().Start(gomock.Any(), name).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	)
}

func TestService_Record(t *testing.T) {
	tests := []struct {
		name        string
		orgID       string
		action      string
		metadata    map[string]any
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:     "entry stored with metadata",
			orgID:    "o1",
			action:   "member:add",
			metadata: map[string]any{"role": "viewer"},
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error) {
						var meta map[string]string
						if err := json.Unmarshal(e.Metadata, &meta); err != nil || meta["role"] != "viewer" {
							return nil, fmt.Errorf("unexpected metadata %s", e.Metadata)
						}
						if e.OrgID != "o1" || e.ActorID != "u1" || e.TargetID != "u2" {
							return nil, fmt.Errorf("unexpected entry %+v", e)
						}
						return e, nil
					},
				)
			},
		},
		{
			name:   "entry stored without metadata",
			orgID:  "o1",
			action: "org:create",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error) {
						if e.Metadata != nil {
							return nil, errors.New("expected no metadata")
						}
						return e, nil
					},
				)
			},
		},
		{
			name:        "action without verb",
			orgID:       "o1",
			action:      "member",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrInvalidAction,
		},
		{
			name:        "action with spaces",
			orgID:       "o1",
			action:      "member: add",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrInvalidAction,
		},
		{
			name:        "missing organization",
			action:      "member:add",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrMissingField,
		},
		{
			name:   "storage failure",
			orgID:  "o1",
			action: "member:add",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).Return(nil, storage.ErrForeignKeyViolation)
			},
			expectedErr: storage.ErrForeignKeyViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			expectSpan(mockTracer, "audit.Service.Record")
			tt.setupMocks(mockStorage)

			s := NewService(mockStorage, mockTracer, mockMonitor, logging.NewNoopLogger())

			_, err := s.Record(context.Background(), tt.orgID, "u1", tt.action, "u2", tt.metadata)

			if tt.expectedErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestService_RecordBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	expectSpan(mockTracer, "audit.Service.Record").Times(2)
	gomock.InOrder(
		mockStorage.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full")),
		mockStorage.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).Return(&types.AuditLogEntry{ID: "a1"}, nil),
	)

	s := NewService(mockStorage, mockTracer, mockMonitor, logging.NewNoopLogger())

	// failures are swallowed, the next call still goes through
	s.RecordBestEffort(context.Background(), "o1", "u1", "member:remove", "u2", nil)
	s.RecordBestEffort(context.Background(), "o1", "u1", "member:remove", "u2", nil)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		page, limit                 int
		expectedPage, expectedLimit uint64
	}{
		{page: 0, limit: 0, expectedPage: 1, expectedLimit: 10},
		{page: 2, limit: 10, expectedPage: 2, expectedLimit: 10},
		{page: -3, limit: -5, expectedPage: 1, expectedLimit: 1},
		{page: 1, limit: 1000, expectedPage: 1, expectedLimit: 100},
		{page: 7, limit: 100, expectedPage: 7, expectedLimit: 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tt.page, tt.limit), func(t *testing.T) {
			page, limit := Paginate(tt.page, tt.limit)

			if page != tt.expectedPage || limit != tt.expectedLimit {
				t.Fatalf("expected %d/%d, got %d/%d", tt.expectedPage, tt.expectedLimit, page, limit)
			}
		})
	}
}

func newSeededService(t *testing.T, n int) *Service {
	t.Helper()

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	s := NewService(storage.NewMemoryStorage(tracer, monitor, logger), tracer, monitor, logger)

	for i := 1; i <= n; i++ {
		if _, err := s.Record(context.Background(), "O1", "u1", "member:add", fmt.Sprintf("t%d", i), nil); err != nil {
			t.Fatalf("failed to seed entry %d: %v", i, err)
		}
	}

	if _, err := s.Record(context.Background(), "O2", "u1", "member:add", "other", nil); err != nil {
		t.Fatalf("failed to seed other organization: %v", err)
	}

	return s
}

func TestService_List(t *testing.T) {
	s := newSeededService(t, 25)

	tests := []struct {
		name            string
		page, limit     int
		expectedMeta    Meta
		expectedTargets []string
	}{
		{
			name:            "second page",
			page:            2,
			limit:           10,
			expectedMeta:    Meta{Total: 25, Page: 2, Limit: 10, TotalPages: 3},
			expectedTargets: []string{"t15", "t14", "t13", "t12", "t11", "t10", "t9", "t8", "t7", "t6"},
		},
		{
			name:            "last partial page",
			page:            3,
			limit:           10,
			expectedMeta:    Meta{Total: 25, Page: 3, Limit: 10, TotalPages: 3},
			expectedTargets: []string{"t5", "t4", "t3", "t2", "t1"},
		},
		{
			name:            "defaults",
			expectedMeta:    Meta{Total: 25, Page: 1, Limit: 10, TotalPages: 3},
			expectedTargets: []string{"t25", "t24", "t23", "t22", "t21", "t20", "t19", "t18", "t17", "t16"},
		},
		{
			name:            "page past the end",
			page:            4,
			limit:           10,
			expectedMeta:    Meta{Total: 25, Page: 4, Limit: 10, TotalPages: 3},
			expectedTargets: []string{},
		},
		{
			name:            "limit clamped",
			page:            1,
			limit:           500,
			expectedMeta:    Meta{Total: 25, Page: 1, Limit: 100, TotalPages: 1},
			expectedTargets: nil,
		},
		{
			name:            "exact division",
			page:            1,
			limit:           5,
			expectedMeta:    Meta{Total: 25, Page: 1, Limit: 5, TotalPages: 5},
			expectedTargets: []string{"t25", "t24", "t23", "t22", "t21"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.List(context.Background(), "O1", tt.page, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Meta != tt.expectedMeta {
				t.Fatalf("expected meta %+v, got %+v", tt.expectedMeta, result.Meta)
			}

			if result.Data == nil {
				t.Fatal("expected an empty slice rather than nil data")
			}

			for i := 1; i < len(result.Data); i++ {
				if result.Data[i].CreatedAt.After(result.Data[i-1].CreatedAt) {
					t.Fatal("expected entries ordered newest first")
				}
			}

			if tt.expectedTargets == nil {
				return
			}

			if len(result.Data) != len(tt.expectedTargets) {
				t.Fatalf("expected %d entries, got %d", len(tt.expectedTargets), len(result.Data))
			}

			for i, e := range result.Data {
				if e.TargetID != tt.expectedTargets[i] {
					t.Fatalf("entry %d: expected %s, got %s", i, tt.expectedTargets[i], e.TargetID)
				}
			}
		})
	}
}

func TestService_ListEmpty(t *testing.T) {
	s := newSeededService(t, 0)

	result, err := s.List(context.Background(), "O1", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Meta.Total != 0 || result.Meta.TotalPages != 0 || len(result.Data) != 0 {
		t.Fatalf("unexpected page %+v", result)
	}
}

func TestService_Recent(t *testing.T) {
	tests := []struct {
		n             int
		expectedLimit uint64
	}{
		{n: 0, expectedLimit: 50},
		{n: 5, expectedLimit: 5},
		{n: 51, expectedLimit: 50},
		{n: -1, expectedLimit: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			expectSpan(mockTracer, "audit.Service.Recent")
			mockStorage.EXPECT().ListAuditLogs(gomock.Any(), "O1", uint64(0), tt.expectedLimit).Return(nil, nil)

			s := NewService(mockStorage, mockTracer, mockMonitor, logging.NewNoopLogger())

			entries, err := s.Recent(context.Background(), "O1", tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if entries == nil {
				t.Fatal("expected an empty slice")
			}
		})
	}
}
