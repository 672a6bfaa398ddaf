// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/db"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

const (
	ActionOrgCreate    = "org:create"
	ActionMemberAdd    = "member:add"
	ActionMemberRemove = "member:remove"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("member not found")
)

type Service struct {
	storage StorageInterface
	authz   AuthzInterface
	audit   AuditInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CreateOrganization stores the organization with ownerID as its first owner.
func (s *Service) CreateOrganization(ctx context.Context, ownerID, name string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.CreateOrganization")
	defer span.End()

	org, _, err := s.storage.CreateOrganization(ctx, &types.Organization{Name: name}, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.mirrorRole(ctx, org.ID, ownerID, authorization.RoleOwner)

	s.audit.RecordBestEffort(ctx, org.ID, ownerID, ActionOrgCreate, org.ID, map[string]any{"name": org.Name})
	s.logger.Security().AdminAction(ownerID, ActionOrgCreate, org.ID)

	return org, nil
}

func (s *Service) ListOrganizations(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ListOrganizations")
	defer span.End()

	return s.storage.ListOrganizationsByUserID(ctx, userID)
}

func (s *Service) GetOrganization(ctx context.Context, orgID string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.GetOrganization")
	defer span.End()

	org, err := s.storage.GetOrganizationByID(ctx, orgID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrOrganizationNotFound
	}

	return org, err
}

func (s *Service) ListMembers(ctx context.Context, orgID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ListMembers")
	defer span.End()

	return s.storage.ListMembershipsByOrgID(ctx, orgID)
}

// AddMember gives userID the role in the organization, an existing member has its role replaced.
func (s *Service) AddMember(ctx context.Context, actorID, orgID, userID string, role authorization.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.AddMember")
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", authorization.ErrUnknownRole, role)
	}

	m, err := s.storage.UpsertMembership(ctx, orgID, userID, role.String())
	if errors.Is(err, storage.ErrForeignKeyViolation) {
		return nil, ErrOrganizationNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.mirrorRole(ctx, orgID, userID, role)

	s.audit.RecordBestEffort(ctx, orgID, actorID, ActionMemberAdd, m.ID, map[string]any{"userId": userID, "role": role.String()})
	s.logger.Security().AdminAction(actorID, ActionMemberAdd, userID)

	return m, nil
}

// RemoveMember deletes the membership and returns it.
// Removing the last owner is allowed and leaves the organization without one.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.RemoveMember")
	defer span.End()

	m, err := s.storage.GetMembership(ctx, orgID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if m.Role == authorization.RoleOwner.String() {
		owners, err := s.storage.CountMembershipsByRole(ctx, orgID, m.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to count owners: %w", err)
		}

		if owners <= 1 {
			s.logger.Warnf("removing the last owner %s of organization %s", userID, orgID)
		}
	}

	if err := s.storage.DeleteMembership(ctx, orgID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMemberNotFound
		}

		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	db.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.authz.RemoveOrgRole(ctx, orgID, userID); err != nil {
			s.logger.Errorf("failed to remove relations of %s on %s: %v", userID, orgID, err)
		}
	})

	s.audit.RecordBestEffort(ctx, orgID, actorID, ActionMemberRemove, m.ID, map[string]any{"removedUserId": userID})
	s.logger.Security().AdminAction(actorID, ActionMemberRemove, userID)

	return m, nil
}

// mirrorRole keeps the relation store in step once the membership is committed,
// storage stays the source of truth so failures are only logged.
func (s *Service) mirrorRole(ctx context.Context, orgID, userID string, role authorization.Role) {
	db.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.authz.AssignOrgRole(ctx, orgID, userID, role); err != nil {
			s.logger.Errorf("failed to assign %s relation of %s on %s: %v", role, userID, orgID, err)
		}
	})
}

func NewService(
	storage StorageInterface,
	authz AuthzInterface,
	audit AuditInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		audit:   audit,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
