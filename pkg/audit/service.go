// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/canonical/task-manager/internal/db"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxRecent    = 50
)

var (
	ErrInvalidAction = errors.New("invalid audit action")
	ErrMissingField  = errors.New("missing audit field")

	// actions read as <resource>:<verb>, e.g. member:add
	actionPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*:[a-z][a-z0-9_-]*$`)
)

type Meta struct {
	Total      uint64 `json:"total"`
	Page       uint64 `json:"page"`
	Limit      uint64 `json:"limit"`
	TotalPages uint64 `json:"totalPages"`
}

type Page struct {
	Data []*types.AuditLogEntry `json:"data"`
	Meta Meta                   `json:"meta"`
}

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Record appends one entry to the organization's trail.
// It is called once the audited change succeeded and is not undone if that change is later rolled back.
func (s *Service) Record(ctx context.Context, orgID, actorID, action, targetID string, metadata map[string]any) (*types.AuditLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Record")
	defer span.End()

	if orgID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: organization and actor are required", ErrMissingField)
	}

	if !actionPattern.MatchString(action) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	entry := &types.AuditLogEntry{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
	}

	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		entry.Metadata = raw
	}

	created, err := s.storage.CreateAuditLog(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return created, nil
}

// RecordBestEffort records the entry once the surrounding transaction, if any, has committed.
// Failures are logged and never reach the caller.
func (s *Service) RecordBestEffort(ctx context.Context, orgID, actorID, action, targetID string, metadata map[string]any) {
	db.AfterCommit(ctx, func(ctx context.Context) {
		if _, err := s.Record(ctx, orgID, actorID, action, targetID, metadata); err != nil {
			s.logger.Errorf("failed to record %s on %s by %s: %v", action, orgID, actorID, err)
		}
	})
}

// List returns one page of the organization's entries, newest first.
// A page past the end holds no data but the same totals.
func (s *Service) List(ctx context.Context, orgID string, page, limit int) (*Page, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.List")
	defer span.End()

	p, l := Paginate(page, limit)

	total, err := s.storage.CountAuditLogs(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	result := &Page{
		Data: []*types.AuditLogEntry{},
		Meta: Meta{
			Total:      total,
			Page:       p,
			Limit:      l,
			TotalPages: (total + l - 1) / l,
		},
	}

	offset := db.Offset(p, l)
	if offset >= total {
		return result, nil
	}

	entries, err := s.storage.ListAuditLogs(ctx, orgID, offset, l)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	if entries != nil {
		result.Data = entries
	}

	return result, nil
}

// Recent returns the n newest entries, n is capped at MaxRecent and defaults to it.
func (s *Service) Recent(ctx context.Context, orgID string, n int) ([]*types.AuditLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Recent")
	defer span.End()

	switch {
	case n == 0 || n > MaxRecent:
		n = MaxRecent
	case n < 0:
		n = 1
	}

	entries, err := s.storage.ListAuditLogs(ctx, orgID, 0, uint64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent audit logs: %w", err)
	}

	if entries == nil {
		entries = []*types.AuditLogEntry{}
	}

	return entries, nil
}

// Paginate applies the defaults to unset values and clamps the rest,
// page is at least 1 and limit within [1, MaxLimit].
func Paginate(page, limit int) (uint64, uint64) {
	if page == 0 {
		page = DefaultPage
	}

	if limit == 0 {
		limit = DefaultLimit
	}

	page = max(page, 1)
	limit = min(max(limit, 1), MaxLimit)

	return uint64(page), uint64(limit)
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
