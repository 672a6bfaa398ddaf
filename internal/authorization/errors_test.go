// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err            error
		expectedCode   codes.Code
		expectedReason string
	}{
		{err: ErrOrganizationContextRequired, expectedCode: codes.PermissionDenied, expectedReason: "ORGANIZATION_CONTEXT_REQUIRED"},
		{err: ErrNotAMember, expectedCode: codes.PermissionDenied, expectedReason: "NOT_A_MEMBER"},
		{err: fmt.Errorf("%w: %q", ErrUnknownRole, "guest"), expectedCode: codes.PermissionDenied, expectedReason: "UNKNOWN_ROLE"},
		{err: fmt.Errorf("%w: viewer is below admin", ErrInsufficientRole), expectedCode: codes.PermissionDenied, expectedReason: "INSUFFICIENT_ROLE"},
		{err: fmt.Errorf("%w: %w", ErrMembershipLookup, errors.New("db down")), expectedCode: codes.Internal, expectedReason: "MEMBERSHIP_LOOKUP"},
		{err: errors.New("boom"), expectedCode: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st := StatusFromError(tt.err)

			if st.Code() != tt.expectedCode {
				t.Fatalf("expected code %v, got %v", tt.expectedCode, st.Code())
			}

			if tt.expectedCode == codes.PermissionDenied && st.Message() != "forbidden" {
				t.Fatalf("expected generic message, got %q", st.Message())
			}

			reason := ""
			for _, d := range st.Details() {
				if info, ok := d.(*errdetails.ErrorInfo); ok {
					reason = info.GetReason()
				}
			}

			if reason != tt.expectedReason {
				t.Fatalf("expected reason %q, got %q", tt.expectedReason, reason)
			}
		})
	}
}
