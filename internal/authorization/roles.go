// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"fmt"
	"slices"
)

// Role is the privilege level of a user within one organization.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var ranks = map[Role]int{
	RoleViewer: 0,
	RoleAdmin:  1,
	RoleOwner:  2,
}

// Roles lists the known roles from least to most privileged.
func Roles() []Role {
	return []Role{RoleViewer, RoleAdmin, RoleOwner}
}

// Rank returns the position of the role in the hierarchy, -1 when the role is unknown.
func (r Role) Rank() int {
	rank, ok := ranks[r]
	if !ok {
		return -1
	}

	return rank
}

func (r Role) Valid() bool {
	return r.Rank() >= 0
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}

	return r, nil
}

// AtLeast returns the roles ranked at or above r.
func AtLeast(r Role) []Role {
	roles := make([]Role, 0, len(ranks))
	for _, role := range Roles() {
		if role.Rank() >= r.Rank() {
			roles = append(roles, role)
		}
	}

	return roles
}

// Evaluate grants when userRole ranks at or above the least privileged role in required.
// Unknown roles on either side deny, required must not be empty.
func Evaluate(userRole Role, required []Role) error {
	if !userRole.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, userRole)
	}

	if len(required) == 0 {
		return fmt.Errorf("%w: no role required", ErrUnknownRole)
	}

	if i := slices.IndexFunc(required, func(r Role) bool { return !r.Valid() }); i >= 0 {
		return fmt.Errorf("%w: %q", ErrUnknownRole, required[i])
	}

	minimum := slices.MinFunc(required, func(a, b Role) int { return a.Rank() - b.Rank() })
	if userRole.Rank() < minimum.Rank() {
		return fmt.Errorf("%w: %s is below %s", ErrInsufficientRole, userRole, minimum)
	}

	return nil
}
