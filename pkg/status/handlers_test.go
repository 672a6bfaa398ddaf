// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/version"
)

//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go

func TestAPI_Alive(t *testing.T) {
	logger := logging.NewNoopLogger()

	mux := chi.NewMux()
	NewAPI(nil, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("", logger), logger).RegisterEndpoints(mux)

	for _, target := range []string{"/api/v0/status", "/api/v0/ready"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rr.Code)
		}

		var s Status
		if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}

		if s.Status != "ok" || s.BuildInfo.Version != version.Version {
			t.Fatalf("unexpected status %+v", s)
		}
	}
}

func TestAPI_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		availability   float64
		expectedStatus int
	}{
		{
			name:           "database reachable",
			availability:   1,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "database down",
			pingErr:        errors.New("connection refused"),
			availability:   0,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockPinger := NewMockPingerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			mockPinger.EXPECT().Ping(gomock.Any()).DoAndReturn(
				func(ctx context.Context) error {
					if _, ok := ctx.Deadline(); !ok {
						t.Error("expected a deadline on the ping context")
					}
					return tt.pingErr
				},
			)
			mockMonitor.EXPECT().SetDependencyAvailability(map[string]string{"component": "database"}, tt.availability).Return(nil)

			logger := logging.NewNoopLogger()
			mux := chi.NewMux()
			NewAPI(map[string]PingerInterface{"database": mockPinger}, tracing.NewNoopTracer(), mockMonitor, logger).RegisterEndpoints(mux)

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/ready", nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAPI_Version(t *testing.T) {
	logger := logging.NewNoopLogger()

	mux := chi.NewMux()
	NewAPI(nil, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("", logger), logger).RegisterEndpoints(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/version", nil))

	var info BuildInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if info.Name != "task-manager" || info.Version != version.Version {
		t.Fatalf("unexpected build info %+v", info)
	}
}
