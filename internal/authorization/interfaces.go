// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/task-manager/internal/openfga"
	"github.com/canonical/task-manager/internal/types"
	"github.com/canonical/task-manager/pkg/authentication"
)

// MembershipResolverInterface answers which role a user holds in an organization.
// A missing membership is reported as found == false with a nil error.
type MembershipResolverInterface interface {
	ResolveRole(ctx context.Context, userID, orgID string) (Role, bool, error)
}

type GuardInterface interface {
	Authorize(ctx context.Context, identity authentication.Identity, required []Role, orgID string) (Role, error)
}

type AuthorizerInterface interface {
	Check(ctx context.Context, user, relation, object string) (bool, error)
	AssignOrgRole(ctx context.Context, orgID, userID string, role Role) error
	RemoveOrgRole(ctx context.Context, orgID, userID string) error
}

type AuthzClientInterface interface {
	Check(ctx context.Context, user, relation, object string) (bool, error)
	ReadTuples(ctx context.Context, user, relation, object, continuationToken string) ([]openfga.Tuple, string, error)
	WriteTuple(ctx context.Context, user, relation, object string) error
	DeleteTuple(ctx context.Context, user, relation, object string) error
}

type MembershipStorageInterface interface {
	GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error)
}
