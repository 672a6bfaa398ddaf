// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"context"
	"time"

	"github.com/canonical/task-manager/internal/types"
)

type ServiceInterface interface {
	Register(ctx context.Context, email, password, displayName string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*Token, error)
	Search(ctx context.Context, term string) ([]*types.User, error)
}

type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	SearchUsers(ctx context.Context, term string, limit uint64) ([]*types.User, error)
}

type TokenIssuerInterface interface {
	Issue(ctx context.Context, user *types.User) (string, time.Time, error)
}
