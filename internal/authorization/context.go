// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import "context"

type orgContextKey struct{}

type roleContextKey struct{}

func withDecision(ctx context.Context, orgID string, role Role) context.Context {
	ctx = context.WithValue(ctx, orgContextKey{}, orgID)
	return context.WithValue(ctx, roleContextKey{}, role)
}

// OrgIDFromContext returns the organization the request was authorized against.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(orgContextKey{}).(string)
	return orgID, ok && orgID != ""
}

// RoleFromContext returns the caller's role in that organization.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(Role)
	return role, ok && role != ""
}
