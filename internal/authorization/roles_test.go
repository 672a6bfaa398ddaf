// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"errors"
	"testing"
)

func TestRoleRankOrder(t *testing.T) {
	privilege := map[Role]int{RoleViewer: 1, RoleAdmin: 2, RoleOwner: 3}

	for _, a := range Roles() {
		for _, b := range Roles() {
			if (a.Rank() >= b.Rank()) != (privilege[a] >= privilege[b]) {
				t.Errorf("rank of %s and %s disagrees with the hierarchy", a, b)
			}
		}
	}

	if Role("root").Rank() != -1 {
		t.Error("expected unknown role to rank -1")
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		if got, err := ParseRole(string(r)); err != nil || got != r {
			t.Errorf("expected %s, got %s, %v", r, got, err)
		}
	}

	if _, err := ParseRole("Owner"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAtLeast(t *testing.T) {
	got := AtLeast(RoleAdmin)
	if len(got) != 2 || got[0] != RoleAdmin || got[1] != RoleOwner {
		t.Fatalf("unexpected roles %v", got)
	}

	if len(AtLeast(RoleViewer)) != 3 {
		t.Fatal("expected every role to be at least viewer")
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		role        Role
		required    []Role
		expectedErr error
	}{
		{name: "owner meets admin or owner", role: RoleOwner, required: []Role{RoleAdmin, RoleOwner}},
		{name: "admin meets admin or owner", role: RoleAdmin, required: []Role{RoleAdmin, RoleOwner}},
		{name: "viewer below admin or owner", role: RoleViewer, required: []Role{RoleAdmin, RoleOwner}, expectedErr: ErrInsufficientRole},
		{name: "owner satisfies viewer", role: RoleOwner, required: []Role{RoleViewer}},
		{name: "admin below owner", role: RoleAdmin, required: []Role{RoleOwner}, expectedErr: ErrInsufficientRole},
		{name: "minimum of an unordered set", role: RoleAdmin, required: []Role{RoleOwner, RoleAdmin}},
		{name: "unknown user role", role: Role("guest"), required: []Role{RoleViewer}, expectedErr: ErrUnknownRole},
		{name: "unknown required role", role: RoleOwner, required: []Role{RoleAdmin, Role("superuser")}, expectedErr: ErrUnknownRole},
		{name: "empty requirement", role: RoleOwner, required: nil, expectedErr: ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Evaluate(tt.role, tt.required)

			if tt.expectedErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}
