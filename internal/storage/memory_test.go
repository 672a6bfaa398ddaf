// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

func newTestMemoryStorage() *MemoryStorage {
	logger := logging.NewNoopLogger()
	return NewMemoryStorage(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("", logger), logger)
}

func TestMemoryStorageCreateUser(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &types.User{Email: "Alice@Example.com", DisplayName: "Alice", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u.Email != "alice@example.com" {
		t.Fatalf("expected email to be lowercased, got %s", u.Email)
	}

	if _, err := s.CreateUser(ctx, &types.User{Email: "alice@example.com"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	found, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, found.ID)
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStorageSearchUsers(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := s.CreateUser(ctx, &types.User{Email: fmt.Sprintf("user%02d@example.com", i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.CreateUser(ctx, &types.User{Email: "bob@other.org", DisplayName: "Bob Example"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		term     string
		limit    uint64
		expected int
	}{
		{name: "limit caps results", term: "example", limit: 10, expected: 10},
		{name: "matches display name", term: "bob example", limit: 10, expected: 1},
		{name: "no match", term: "nobody", limit: 10, expected: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			users, err := s.SearchUsers(ctx, test.term, test.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(users) != test.expected {
				t.Fatalf("expected %d users, got %d", test.expected, len(users))
			}
		})
	}
}

func TestMemoryStorageCreateOrganizationAddsOwner(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	org, owner, err := s.CreateOrganization(ctx, &types.Organization{Name: "acme"}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if owner.OrgID != org.ID || owner.UserID != "u1" || owner.Role != "owner" {
		t.Fatalf("unexpected owner membership %+v", owner)
	}

	m, err := s.GetMembership(ctx, org.ID, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Role != "owner" {
		t.Fatalf("expected owner role, got %s", m.Role)
	}

	orgs, err := s.ListOrganizationsByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(orgs) != 1 || orgs[0].ID != org.ID {
		t.Fatalf("expected to list the created organization, got %v", orgs)
	}
}

func TestMemoryStorageUpsertMembership(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	org, _, err := s.CreateOrganization(ctx, &types.Organization{Name: "acme"}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := s.UpsertMembership(ctx, org.ID, "u4", "viewer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := s.GetMembership(ctx, org.ID, "u4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved.Role != "viewer" {
		t.Fatalf("expected viewer, got %s", resolved.Role)
	}

	second, err := s.UpsertMembership(ctx, org.ID, "u4", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.ID != first.ID || !second.AddedAt.Equal(first.AddedAt) {
		t.Fatalf("expected upsert to keep the existing row, got %+v and %+v", first, second)
	}

	members, err := s.ListMembershipsByOrgID(ctx, org.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(members) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(members))
	}

	if _, err := s.UpsertMembership(ctx, "missing", "u4", "viewer"); !errors.Is(err, ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestMemoryStorageDeleteMembership(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	org, _, err := s.CreateOrganization(ctx, &types.Organization{Name: "acme"}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.DeleteMembership(ctx, org.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteMembership(ctx, org.ID, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := s.CountMembershipsByRole(ctx, org.ID, "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count != 0 {
		t.Fatalf("expected no owners left, got %d", count)
	}
}

func TestMemoryStorageAuditLogsOrderedNewestFirst(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 1; i <= 25; i++ {
		if _, err := s.CreateAuditLog(ctx, &types.AuditLogEntry{OrgID: "o1", ActorID: "u1", Action: "task:update", TargetID: fmt.Sprint(i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.CreateAuditLog(ctx, &types.AuditLogEntry{OrgID: "o2", ActorID: "u1", Action: "task:update"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := s.ListAuditLogs(ctx, "o1", 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(page))
	}

	// 25 entries newest first, the second page holds targets 15 down to 6
	for i, e := range page {
		if expected := fmt.Sprint(15 - i); e.TargetID != expected {
			t.Fatalf("entry %d: expected target %s, got %s", i, expected, e.TargetID)
		}
	}

	empty, err := s.ListAuditLogs(ctx, "o1", 30, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(empty) != 0 {
		t.Fatalf("expected no entries past the end, got %d", len(empty))
	}

	total, err := s.CountAuditLogs(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if total != 25 {
		t.Fatalf("expected 25 entries, got %d", total)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	org, _, err := s.CreateOrganization(ctx, &types.Organization{Name: "acme"}, "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			userID := fmt.Sprintf("u%d", i)
			if _, err := s.UpsertMembership(ctx, org.ID, userID, "viewer"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if _, err := s.GetMembership(ctx, org.ID, userID); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	members, err := s.ListMembershipsByOrgID(ctx, org.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(members) != 21 {
		t.Fatalf("expected 21 members, got %d", len(members))
	}
}
