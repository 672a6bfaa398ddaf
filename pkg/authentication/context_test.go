// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"testing"
)

func TestIdentityContext(t *testing.T) {
	if _, ok := GetUserID(context.Background()); ok {
		t.Fatal("expected no user in an empty context")
	}

	identity := Identity{SubjectID: "u1", Email: "u1@example.com"}
	ctx := WithIdentity(context.Background(), identity)

	identity.SubjectID = "u2"

	got, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}

	if got.SubjectID != "u1" {
		t.Fatalf("expected the context copy to be unaffected, got %s", got.SubjectID)
	}

	if userID, ok := GetUserID(ctx); !ok || userID != "u1" {
		t.Fatalf("expected user u1, got %q", userID)
	}

	if _, ok := GetUserID(WithIdentity(context.Background(), Identity{})); ok {
		t.Fatal("expected an identity without subject to yield no user")
	}
}
