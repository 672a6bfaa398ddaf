// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/task-manager/internal/types"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	SearchUsers(ctx context.Context, term string, limit uint64) ([]*types.User, error)

	// CreateOrganization stores the organization and the owner membership of ownerID atomically.
	CreateOrganization(ctx context.Context, o *types.Organization, ownerID string) (*types.Organization, *types.Membership, error)
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error)

	// UpsertMembership inserts the membership or updates the role of the existing one.
	UpsertMembership(ctx context.Context, orgID, userID, role string) (*types.Membership, error)
	GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error)
	ListMembershipsByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error)
	DeleteMembership(ctx context.Context, orgID, userID string) error
	CountMembershipsByRole(ctx context.Context, orgID, role string) (uint64, error)

	CreateAuditLog(ctx context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error)
	ListAuditLogs(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditLogEntry, error)
	CountAuditLogs(ctx context.Context, orgID string) (uint64, error)
}
