// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

const (
	OWNER_RELATION  = "owner"
	ADMIN_RELATION  = "admin"
	VIEWER_RELATION = "viewer"
)

func UserTuple(userId string) string {
	return "user:" + userId
}

func OrganizationTuple(orgId string) string {
	return "organization:" + orgId
}

// relationFor maps a role onto the OpenFGA relation written for it.
func relationFor(r Role) string {
	switch r {
	case RoleOwner:
		return OWNER_RELATION
	case RoleAdmin:
		return ADMIN_RELATION
	default:
		return VIEWER_RELATION
	}
}
