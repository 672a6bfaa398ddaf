// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "unauthenticated", err: status.Error(codes.Unauthenticated, "unauthorized"), expected: http.StatusUnauthorized},
		{name: "permission denied", err: status.Error(codes.PermissionDenied, "forbidden"), expected: http.StatusForbidden},
		{name: "wrapped permission denied", err: fmt.Errorf("guard: %w", status.Error(codes.PermissionDenied, "forbidden")), expected: http.StatusForbidden},
		{name: "not found", err: status.Error(codes.NotFound, "member not found"), expected: http.StatusNotFound},
		{name: "already exists", err: status.Error(codes.AlreadyExists, "email taken"), expected: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := StatusFromError(test.err); got != test.expected {
				t.Fatalf("expected status %d, got %d", test.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorResponse
	}{
		{
			name:     "grpc status",
			err:      status.Error(codes.PermissionDenied, "forbidden"),
			expected: ErrorResponse{Status: http.StatusForbidden, Message: "forbidden"},
		},
		{
			name:     "internal details are hidden",
			err:      errors.New("pq: connection refused"),
			expected: ErrorResponse{Status: http.StatusInternalServerError, Message: "internal server error"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			if err := WriteError(rr, test.err); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if rr.Code != test.expected.Status {
				t.Fatalf("expected status %d, got %d", test.expected.Status, rr.Code)
			}

			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json content type, got %s", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("unexpected error decoding body: %v", err)
			}

			if body != test.expected {
				t.Fatalf("expected body %+v, got %+v", test.expected, body)
			}
		})
	}
}
