// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/types"
)

type ServiceInterface interface {
	Record(ctx context.Context, orgID, actorID, action, targetID string, metadata map[string]any) (*types.AuditLogEntry, error)
	RecordBestEffort(ctx context.Context, orgID, actorID, action, targetID string, metadata map[string]any)
	List(ctx context.Context, orgID string, page, limit int) (*Page, error)
	Recent(ctx context.Context, orgID string, n int) ([]*types.AuditLogEntry, error)
}

type StorageInterface interface {
	CreateAuditLog(ctx context.Context, e *types.AuditLogEntry) (*types.AuditLogEntry, error)
	ListAuditLogs(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditLogEntry, error)
	CountAuditLogs(ctx context.Context, orgID string) (uint64, error)
}

// GuardInterface mounts routes behind their role requirements.
type GuardInterface interface {
	Mount(mux chi.Router, routes []authorization.Route)
}
