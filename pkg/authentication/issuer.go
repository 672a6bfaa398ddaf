// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

const DefaultTokenTTL = time.Hour

var _ TokenIssuerInterface = (*Issuer)(nil)

// Issuer mints identity tokens for users whose credentials were already checked.
type Issuer struct {
	method jwt.SigningMethod
	key    any
	issuer string
	ttl    time.Duration

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (i *Issuer) Issue(ctx context.Context, user *types.User) (string, time.Time, error) {
	_, span := i.tracer.Start(ctx, "authentication.Issuer.Issue")
	defer span.End()

	if user == nil || user.ID == "" {
		return "", time.Time{}, fmt.Errorf("cannot issue a token without a subject")
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			IssuedAt:  numericDate(issuedAt),
			ExpiresAt: numericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(i.method, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %v", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

func newIssuer(method jwt.SigningMethod, key any, issuer string, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Issuer {
	i := new(Issuer)

	i.method = method
	i.key = key
	i.issuer = issuer
	i.ttl = ttl
	if i.ttl <= 0 {
		i.ttl = DefaultTokenTTL
	}
	i.now = time.Now

	i.tracer = tracer
	i.monitor = monitor
	i.logger = logger

	return i
}

// NewHMACIssuer signs tokens with HS256 and the shared secret every verifying service holds.
func NewHMACIssuer(secret []byte, issuer string, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}

	return newIssuer(jwt.SigningMethodHS256, secret, issuer, ttl, tracer, monitor, logger), nil
}

// NewKeyPairIssuer signs tokens with RS256 or ES256 depending on the PEM private key.
func NewKeyPairIssuer(pemKey []byte, issuer string, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*Issuer, error) {
	key, method, err := parsePrivateKey(pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	return newIssuer(method, key, issuer, ttl, tracer, monitor, logger), nil
}
