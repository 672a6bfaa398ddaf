// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"time"

	"github.com/canonical/task-manager/internal/types"
)

type TokenVerifierInterface interface {
	// VerifyToken checks signature and expiry of a raw JWT locally and returns the caller identity.
	// Failures wrap ErrInvalidToken, ErrExpiredToken or ErrMalformedToken.
	VerifyToken(ctx context.Context, rawToken string) (*Identity, error)
}

type TokenIssuerInterface interface {
	Issue(ctx context.Context, user *types.User) (string, time.Time, error)
}
