// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidToken covers bad signatures, disallowed algorithms and issuer mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for tokens past their exp claim, even when correctly signed.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedToken is returned when the token cannot be decoded or lacks a subject.
	ErrMalformedToken = errors.New("malformed token")
)

// StatusFromError converts a verification failure into the Unauthenticated status returned to callers.
// Expired tokens are told apart so clients can ask the user to log in again.
func StatusFromError(err error) *status.Status {
	if errors.Is(err, ErrExpiredToken) {
		return status.New(codes.Unauthenticated, "token expired")
	}

	return status.New(codes.Unauthenticated, "unauthorized")
}
