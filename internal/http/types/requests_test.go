// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDecodeJSON(t *testing.T) {
	type request struct {
		Email string `json:"email" validate:"required,email"`
		Role  string `json:"role" validate:"omitempty,oneof=viewer admin owner"`
	}

	tests := []struct {
		name            string
		body            string
		expectedCode    codes.Code
		expectedMessage string
	}{
		{name: "valid", body: `{"email":"a@example.com","role":"admin"}`, expectedCode: codes.OK},
		{name: "extra fields are ignored", body: `{"email":"a@example.com","orgId":"o1"}`, expectedCode: codes.OK},
		{name: "not json", body: `email=a`, expectedCode: codes.InvalidArgument, expectedMessage: "invalid request body"},
		{name: "missing email", body: `{}`, expectedCode: codes.InvalidArgument, expectedMessage: "invalid request: email failed on required"},
		{name: "bad role", body: `{"email":"a@example.com","role":"root"}`, expectedCode: codes.InvalidArgument, expectedMessage: "invalid request: role failed on oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var v request
			err := DecodeJSON(req, &v)

			st := status.Convert(err)
			if st.Code() != tt.expectedCode {
				t.Fatalf("expected %v, got %v", tt.expectedCode, err)
			}

			if tt.expectedMessage != "" && st.Message() != tt.expectedMessage {
				t.Fatalf("expected message %q, got %q", tt.expectedMessage, st.Message())
			}
		})
	}
}
