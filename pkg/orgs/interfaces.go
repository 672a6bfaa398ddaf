// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/types"
)

type ServiceInterface interface {
	CreateOrganization(ctx context.Context, ownerID, name string) (*types.Organization, error)
	ListOrganizations(ctx context.Context, userID string) ([]*types.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (*types.Organization, error)
	ListMembers(ctx context.Context, orgID string) ([]*types.Membership, error)
	AddMember(ctx context.Context, actorID, orgID, userID string, role authorization.Role) (*types.Membership, error)
	RemoveMember(ctx context.Context, actorID, orgID, userID string) (*types.Membership, error)
}

type StorageInterface interface {
	CreateOrganization(ctx context.Context, o *types.Organization, ownerID string) (*types.Organization, *types.Membership, error)
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error)
	UpsertMembership(ctx context.Context, orgID, userID, role string) (*types.Membership, error)
	GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error)
	ListMembershipsByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error)
	DeleteMembership(ctx context.Context, orgID, userID string) error
	CountMembershipsByRole(ctx context.Context, orgID, role string) (uint64, error)
}

// AuthzInterface mirrors memberships into the relation store.
type AuthzInterface interface {
	AssignOrgRole(ctx context.Context, orgID, userID string, role authorization.Role) error
	RemoveOrgRole(ctx context.Context, orgID, userID string) error
}

type AuditInterface interface {
	RecordBestEffort(ctx context.Context, orgID, actorID, action, targetID string, metadata map[string]any)
}

type GuardInterface interface {
	Mount(mux chi.Router, routes []authorization.Route)
}
