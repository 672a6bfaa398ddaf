// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"testing"
)

func TestOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     uint64
		pageSize uint64
		expected uint64
	}{
		{name: "zero page", page: 0, pageSize: 10, expected: 0},
		{name: "first page", page: 1, pageSize: 10, expected: 0},
		{name: "second page", page: 2, pageSize: 10, expected: 10},
		{name: "third page of 25", page: 3, pageSize: 25, expected: 50},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Offset(test.page, test.pageSize); got != test.expected {
				t.Fatalf("expected offset %d, got %d", test.expected, got)
			}
		})
	}
}

func TestAfterCommitWithoutTransactionRunsImmediately(t *testing.T) {
	called := false

	AfterCommit(context.Background(), func(context.Context) { called = true })

	if !called {
		t.Fatal("expected hook to run without a transaction")
	}
}

func TestAfterCommitIsDeferredUntilHooksRun(t *testing.T) {
	lt := new(lazyTx)
	ctx := contextWithLazyTx(context.Background(), lt)

	calls := 0
	AfterCommit(ctx, func(hookCtx context.Context) {
		calls++

		if lazyTxFromContext(hookCtx) != nil {
			t.Error("expected hook context to be detached from the transaction")
		}
	})

	if calls != 0 {
		t.Fatalf("expected hook to be deferred, got %d calls", calls)
	}

	lt.runHooks(WithoutTx(ctx))
	lt.runHooks(WithoutTx(ctx))

	if calls != 1 {
		t.Fatalf("expected hook to run exactly once, got %d calls", calls)
	}
}

func TestWithoutTx(t *testing.T) {
	ctx := contextWithLazyTx(context.Background(), new(lazyTx))
	ctx = ContextWithTx(ctx, nil)

	detached := WithoutTx(ctx)

	if lazyTxFromContext(detached) != nil {
		t.Fatal("expected no lazy transaction")
	}

	if TxFromContext(detached) != nil {
		t.Fatal("expected no transaction")
	}
}
