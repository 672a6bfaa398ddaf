// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"time"
)

// Identity is the verified caller of a request, built from token claims only.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Define a private custom type to avoid collisions
type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a copy of ctx carrying a copy of identity, later changes to
// the caller's value are not visible through the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity attached by the authentication middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// GetUserID retrieves the user ID from the context.
// Returns an empty string and false if the user ID is not present.
func GetUserID(ctx context.Context) (string, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.SubjectID == "" {
		return "", false
	}

	return identity.SubjectID, true
}
