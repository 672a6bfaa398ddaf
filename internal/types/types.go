// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"displayName,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Organization struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Membership binds one user to one organization with a role,
// there is at most one per (OrgID, UserID) pair.
type Membership struct {
	ID      string    `db:"id" json:"id"`
	OrgID   string    `db:"org_id" json:"orgId"`
	UserID  string    `db:"user_id" json:"userId"`
	Role    string    `db:"role" json:"role"`
	AddedAt time.Time `db:"added_at" json:"addedAt"`
}

// AuditLogEntry is write once, Metadata holds a JSON object or nothing.
type AuditLogEntry struct {
	ID        string          `db:"id" json:"id"`
	OrgID     string          `db:"org_id" json:"orgId"`
	ActorID   string          `db:"actor_id" json:"actorId"`
	Action    string          `db:"action" json:"action"`
	TargetID  string          `db:"target_id" json:"targetId,omitempty"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
