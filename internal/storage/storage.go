// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/task-manager/internal/db"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

const ownerRole = "owner"

var (
	userColumns       = []string{"id", "email", "display_name", "password_hash", "created_at"}
	membershipColumns = []string{"id", "org_id", "user_id", "role", "added_at"}
	auditColumns      = []string{"id", "org_id", "actor_id", "action", "target_id", "metadata", "created_at"}
)

var _ StorageInterface = (*Storage)(nil)

// Storage is the postgres implementation of StorageInterface.
type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func newID(kind string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s ID: %w", kind, err)
	}

	return id.String(), nil
}

type scanner interface {
	Scan(...any) error
}

func scanUser(row scanner) (*types.User, error) {
	var (
		u           types.User
		displayName sql.NullString
	)

	if err := row.Scan(&u.ID, &u.Email, &displayName, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}

	u.DisplayName = displayName.String

	return &u, nil
}

func scanMembership(row scanner) (*types.Membership, error) {
	var m types.Membership

	if err := row.Scan(&m.ID, &m.OrgID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func scanAuditLog(row scanner) (*types.AuditLogEntry, error) {
	var (
		e        types.AuditLogEntry
		targetID sql.NullString
		metadata []byte
	)

	if err := row.Scan(&e.ID, &e.OrgID, &e.ActorID, &e.Action, &targetID, &metadata, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.TargetID = targetID.String
	if len(metadata) > 0 {
		e.Metadata = metadata
	}

	return &e, nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUser")
	defer span.End()

	id, err := newID("user")
	if err != nil {
		return nil, err
	}

	row := s.db.Statement(ctx).
		Insert("users").
		Columns("id", "email", "display_name", "password_hash").
		Values(id, strings.ToLower(u.Email), nullable(u.DisplayName), u.PasswordHash).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		QueryRowContext(ctx)

	user, err := scanUser(row)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert user")
	}

	return user, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByEmail")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (s *Storage) getUser(ctx context.Context, where sq.Eq) (*types.User, error) {
	row := s.db.Statement(ctx).
		Select(userColumns...).
		From("users").
		Where(where).
		QueryRowContext(ctx)

	user, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *Storage) SearchUsers(ctx context.Context, term string, limit uint64) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SearchUsers")
	defer span.End()

	pattern := "%" + term + "%"

	rows, err := s.db.Statement(ctx).
		Select(userColumns...).
		From("users").
		Where(sq.Or{
			sq.ILike{"email": pattern},
			sq.ILike{"display_name": pattern},
		}).
		OrderBy("email").
		Limit(limit).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := make([]*types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return users, nil
}

func (s *Storage) CreateOrganization(ctx context.Context, o *types.Organization, ownerID string) (*types.Organization, *types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateOrganization")
	defer span.End()

	orgID, err := newID("organization")
	if err != nil {
		return nil, nil, err
	}

	membershipID, err := newID("membership")
	if err != nil {
		return nil, nil, err
	}

	var (
		org        types.Organization
		membership *types.Membership
	)

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		err := s.db.Statement(txCtx).
			Insert("organizations").
			Columns("id", "name").
			Values(orgID, o.Name).
			Suffix("RETURNING id, name, created_at").
			QueryRowContext(txCtx).
			Scan(&org.ID, &org.Name, &org.CreatedAt)
		if err != nil {
			return wrapWriteError(err, "failed to insert organization")
		}

		row := s.db.Statement(txCtx).
			Insert("memberships").
			Columns("id", "org_id", "user_id", "role").
			Values(membershipID, org.ID, ownerID, ownerRole).
			Suffix("RETURNING " + strings.Join(membershipColumns, ", ")).
			QueryRowContext(txCtx)

		membership, err = scanMembership(row)
		if err != nil {
			return wrapWriteError(err, "failed to insert owner membership")
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &org, membership, nil
}

func (s *Storage) GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationByID")
	defer span.End()

	var o types.Organization
	err := s.db.Statement(ctx).
		Select("id", "name", "created_at").
		From("organizations").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&o.ID, &o.Name, &o.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &o, nil
}

func (s *Storage) ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizationsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("o.id", "o.name", "o.created_at").
		From("organizations o").
		Join("memberships m ON o.id = m.org_id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("o.created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*types.Organization, 0)
	for rows.Next() {
		var o types.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return orgs, nil
}

func (s *Storage) UpsertMembership(ctx context.Context, orgID, userID, role string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertMembership")
	defer span.End()

	id, err := newID("membership")
	if err != nil {
		return nil, err
	}

	row := s.db.Statement(ctx).
		Insert("memberships").
		Columns("id", "org_id", "user_id", "role").
		Values(id, orgID, userID, role).
		Suffix("ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role RETURNING " + strings.Join(membershipColumns, ", ")).
		QueryRowContext(ctx)

	m, err := scanMembership(row)
	if err != nil {
		return nil, wrapWriteError(err, "failed to upsert membership")
	}

	return m, nil
}

func (s *Storage) GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	row := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		QueryRowContext(ctx)

	m, err := scanMembership(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

func (s *Storage) ListMembershipsByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembershipsByOrgID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("added_at ASC", "id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*types.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) DeleteMembership(ctx context.Context, orgID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteMembership")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) CountMembershipsByRole(ctx context.Context, orgID, role string) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountMembershipsByRole")
	defer span.End()

	var count uint64
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("memberships").
		Where(sq.Eq{"org_id": orgID, "role": role}).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	return count, nil
}

func (s *Storage) CreateAuditLog(ctx context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateAuditLog")
	defer span.End()

	id, err := newID("audit log")
	if err != nil {
		return nil, err
	}

	var metadata any
	if len(e.Metadata) > 0 {
		metadata = string(e.Metadata)
	}

	row := s.db.Statement(ctx).
		Insert("audit_logs").
		Columns("id", "org_id", "actor_id", "action", "target_id", "metadata").
		Values(id, e.OrgID, e.ActorID, e.Action, nullable(e.TargetID), metadata).
		Suffix("RETURNING " + strings.Join(auditColumns, ", ")).
		QueryRowContext(ctx)

	entry, err := scanAuditLog(row)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert audit log")
	}

	return entry, nil
}

// ListAuditLogs returns the entries of an organization newest first, id breaks ties
// between entries written within the same timestamp.
func (s *Storage) ListAuditLogs(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListAuditLogs")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(auditColumns...).
		From("audit_logs").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).
		Limit(limit).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*types.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

func (s *Storage) CountAuditLogs(ctx context.Context, orgID string) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountAuditLogs")
	defer span.End()

	var count uint64
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("audit_logs").
		Where(sq.Eq{"org_id": orgID}).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return count, nil
}
