// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

// Authorizer keeps the organization relations stored in OpenFGA in line with memberships.
type Authorizer struct {
	client AuthzClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) Check(ctx context.Context, user string, relation string, object string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.Check")
	defer span.End()

	return a.client.Check(ctx, user, relation, object)
}

// AssignOrgRole replaces any relation the user holds on the organization with the one for role.
func (a *Authorizer) AssignOrgRole(ctx context.Context, orgId, userId string, role Role) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AssignOrgRole")
	defer span.End()

	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	relation := relationFor(role)

	kept := false
	err := a.forEachTuple(ctx, UserTuple(userId), OrganizationTuple(orgId), func(user, rel, object string) error {
		if rel == relation {
			kept = true
			return nil
		}

		return a.client.DeleteTuple(ctx, user, rel, object)
	})
	if err != nil {
		return err
	}

	if kept {
		return nil
	}

	return a.client.WriteTuple(ctx, UserTuple(userId), relation, OrganizationTuple(orgId))
}

func (a *Authorizer) RemoveOrgRole(ctx context.Context, orgId, userId string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RemoveOrgRole")
	defer span.End()

	return a.forEachTuple(ctx, UserTuple(userId), OrganizationTuple(orgId), func(user, rel, object string) error {
		return a.client.DeleteTuple(ctx, user, rel, object)
	})
}

// forEachTuple walks every page of tuples between user and object.
func (a *Authorizer) forEachTuple(ctx context.Context, user, object string, fn func(user, relation, object string) error) error {
	cToken := ""
	for {
		tuples, next, err := a.client.ReadTuples(ctx, user, "", object, cToken)
		if err != nil {
			a.logger.Errorf("error when retrieving tuples: %s", err)
			return err
		}

		for _, t := range tuples {
			if err := fn(t.User, t.Relation, t.Object); err != nil {
				a.logger.Errorf("error when updating tuple %v: %s", t, err)
				return err
			}
		}

		if next == "" || len(tuples) == 0 {
			return nil
		}
		cToken = next
	}
}

func NewAuthorizer(client AuthzClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.client = client
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
