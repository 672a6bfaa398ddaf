// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

var _ StorageInterface = (*MemoryStorage)(nil)

// MemoryStorage keeps everything in process, it backs STORAGE_DRIVER=memory and the tests.
// Values are copied in and out so callers never share state with the store.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[string]types.User
	userIDByMail map[string]string
	orgs         map[string]types.Organization
	// memberships is keyed by org id then user id
	memberships map[string]map[string]types.Membership
	auditLogs   map[string][]types.AuditLogEntry

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMemoryStorage(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *MemoryStorage {
	s := new(MemoryStorage)

	s.users = make(map[string]types.User)
	s.userIDByMail = make(map[string]string)
	s.orgs = make(map[string]types.Organization)
	s.memberships = make(map[string]map[string]types.Membership)
	s.auditLogs = make(map[string][]types.AuditLogEntry)
	s.now = func() time.Time { return time.Now().UTC() }

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

func (s *MemoryStorage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.CreateUser")
	defer span.End()

	id, err := newID("user")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := s.userIDByMail[email]; ok {
		return nil, fmt.Errorf("failed to insert user: %w", ErrDuplicateKey)
	}

	user := types.User{
		ID:           id,
		Email:        email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    s.now(),
	}

	s.users[id] = user
	s.userIDByMail[email] = id

	return &user, nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.GetUserByID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.GetUserByEmail")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDByMail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}

	u := s.users[id]

	return &u, nil
}

func (s *MemoryStorage) SearchUsers(ctx context.Context, term string, limit uint64) ([]*types.User, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.SearchUsers")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)

	users := make([]*types.User, 0)
	for _, u := range s.users {
		if strings.Contains(u.Email, term) || strings.Contains(strings.ToLower(u.DisplayName), term) {
			user := u
			users = append(users, &user)
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })

	if uint64(len(users)) > limit {
		users = users[:limit]
	}

	return users, nil
}

func (s *MemoryStorage) CreateOrganization(ctx context.Context, o *types.Organization, ownerID string) (*types.Organization, *types.Membership, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.CreateOrganization")
	defer span.End()

	orgID, err := newID("organization")
	if err != nil {
		return nil, nil, err
	}

	membershipID, err := newID("membership")
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	org := types.Organization{ID: orgID, Name: o.Name, CreatedAt: now}
	owner := types.Membership{ID: membershipID, OrgID: orgID, UserID: ownerID, Role: ownerRole, AddedAt: now}

	s.orgs[orgID] = org
	s.memberships[orgID] = map[string]types.Membership{ownerID: owner}

	return &org, &owner, nil
}

func (s *MemoryStorage) GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.GetOrganizationByID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &o, nil
}

func (s *MemoryStorage) ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.ListOrganizationsByUserID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]*types.Organization, 0)
	for orgID, members := range s.memberships {
		if _, ok := members[userID]; !ok {
			continue
		}

		o := s.orgs[orgID]
		orgs = append(orgs, &o)
	}

	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].CreatedAt.Equal(orgs[j].CreatedAt) {
			return orgs[i].ID > orgs[j].ID
		}
		return orgs[i].CreatedAt.After(orgs[j].CreatedAt)
	})

	return orgs, nil
}

func (s *MemoryStorage) UpsertMembership(ctx context.Context, orgID, userID, role string) (*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.UpsertMembership")
	defer span.End()

	id, err := newID("membership")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.memberships[orgID]
	if !ok {
		return nil, fmt.Errorf("failed to upsert membership: %w", ErrForeignKeyViolation)
	}

	m, exists := members[userID]
	if exists {
		m.Role = role
	} else {
		m = types.Membership{ID: id, OrgID: orgID, UserID: userID, Role: role, AddedAt: s.now()}
	}

	members[userID] = m

	return &m, nil
}

func (s *MemoryStorage) GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.GetMembership")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memberships[orgID][userID]
	if !ok {
		return nil, ErrNotFound
	}

	return &m, nil
}

func (s *MemoryStorage) ListMembershipsByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.ListMembershipsByOrgID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]*types.Membership, 0, len(s.memberships[orgID]))
	for _, m := range s.memberships[orgID] {
		member := m
		members = append(members, &member)
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].AddedAt.Equal(members[j].AddedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].AddedAt.Before(members[j].AddedAt)
	})

	return members, nil
}

func (s *MemoryStorage) DeleteMembership(ctx context.Context, orgID, userID string) error {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.DeleteMembership")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memberships[orgID][userID]; !ok {
		return ErrNotFound
	}

	delete(s.memberships[orgID], userID)

	return nil
}

func (s *MemoryStorage) CountMembershipsByRole(ctx context.Context, orgID, role string) (uint64, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.CountMembershipsByRole")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count uint64
	for _, m := range s.memberships[orgID] {
		if m.Role == role {
			count++
		}
	}

	return count, nil
}

func (s *MemoryStorage) CreateAuditLog(ctx context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.CreateAuditLog")
	defer span.End()

	id, err := newID("audit log")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := types.AuditLogEntry{
		ID:        id,
		OrgID:     e.OrgID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		TargetID:  e.TargetID,
		Metadata:  slices.Clone(e.Metadata),
		CreatedAt: s.now(),
	}

	s.auditLogs[e.OrgID] = append(s.auditLogs[e.OrgID], entry)

	return &entry, nil
}

func (s *MemoryStorage) ListAuditLogs(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditLogEntry, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.ListAuditLogs")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := s.auditLogs[orgID]

	sorted := make([]*types.AuditLogEntry, 0, len(logs))
	for i := range logs {
		e := logs[i]
		sorted = append(sorted, &e)
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := uint64(len(sorted))
	if offset >= total {
		return []*types.AuditLogEntry{}, nil
	}

	end := min(offset+limit, total)

	return sorted[offset:end], nil
}

func (s *MemoryStorage) CountAuditLogs(ctx context.Context, orgID string) (uint64, error) {
	_, span := s.tracer.Start(ctx, "storage.MemoryStorage.CountAuditLogs")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.auditLogs[orgID])), nil
}
