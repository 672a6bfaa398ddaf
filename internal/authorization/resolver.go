// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
)

// StorageResolver reads the membership row on every call, nothing is cached.
type StorageResolver struct {
	storage MembershipStorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (r *StorageResolver) ResolveRole(ctx context.Context, userID, orgID string) (Role, bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.StorageResolver.ResolveRole")
	defer span.End()

	m, err := r.storage.GetMembership(ctx, orgID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to get membership: %w", err)
	}

	// a role outside the hierarchy is passed on and denied by Evaluate
	return Role(m.Role), true, nil
}

func NewStorageResolver(s MembershipStorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *StorageResolver {
	r := new(StorageResolver)
	r.storage = s
	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}

// FGAResolver derives the role from OpenFGA relations, the most privileged one wins.
type FGAResolver struct {
	client AuthzClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (r *FGAResolver) ResolveRole(ctx context.Context, userID, orgID string) (Role, bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.FGAResolver.ResolveRole")
	defer span.End()

	for _, role := range []Role{RoleOwner, RoleAdmin, RoleViewer} {
		allowed, err := r.client.Check(ctx, UserTuple(userID), relationFor(role), OrganizationTuple(orgID))
		if err != nil {
			return "", false, fmt.Errorf("failed to check %s relation: %w", role, err)
		}

		if allowed {
			return role, true, nil
		}
	}

	return "", false, nil
}

func NewFGAResolver(client AuthzClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *FGAResolver {
	r := new(FGAResolver)
	r.client = client
	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
