// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "authorization.task-manager"

var (
	ErrOrganizationContextRequired = errors.New("organization context required")
	ErrNotAMember                  = errors.New("not a member of the organization")
	ErrUnknownRole                 = errors.New("unknown role")
	ErrInsufficientRole            = errors.New("insufficient role")
	// ErrMembershipLookup is returned when the resolver itself failed, it is not a denial.
	ErrMembershipLookup = errors.New("membership lookup failed")
)

// Reason returns the denial category of err, empty when err is not an authorization error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrOrganizationContextRequired):
		return "ORGANIZATION_CONTEXT_REQUIRED"
	case errors.Is(err, ErrNotAMember):
		return "NOT_A_MEMBER"
	case errors.Is(err, ErrUnknownRole):
		return "UNKNOWN_ROLE"
	case errors.Is(err, ErrInsufficientRole):
		return "INSUFFICIENT_ROLE"
	case errors.Is(err, ErrMembershipLookup):
		return "MEMBERSHIP_LOOKUP"
	default:
		return ""
	}
}

// StatusFromError returns PermissionDenied with a generic message for every denial,
// the category only travels in the ErrorInfo detail.
func StatusFromError(err error) *status.Status {
	reason := Reason(err)

	var st *status.Status
	switch reason {
	case "":
		return status.New(codes.Internal, "internal server error")
	case "MEMBERSHIP_LOOKUP":
		st = status.New(codes.Internal, "internal server error")
	default:
		st = status.New(codes.PermissionDenied, "forbidden")
	}

	if detailed, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain}); err == nil {
		return detailed
	}

	return st
}
