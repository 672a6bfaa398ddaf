// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

var _ TokenVerifierInterface = (*JWTVerifier)(nil)

// JWTVerifier validates HS256 tokens against the shared secret, no call to the issuer is made.
type JWTVerifier struct {
	parser *jwt.Parser
	secret []byte

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (*Identity, error) {
	_, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	claims := new(Claims)

	_, err := v.parser.ParseWithClaims(rawToken, claims, v.keyFunc)
	if err != nil {
		return nil, classifyJWTError(err)
	}

	return claims.identity()
}

func (v *JWTVerifier) keyFunc(*jwt.Token) (any, error) {
	return v.secret, nil
}

// classifyJWTError folds golang-jwt validation errors into the three token failures.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// NewJWTVerifier accepts HS256 only, so alg=none and asymmetric algorithm confusion are rejected.
func NewJWTVerifier(secret []byte, issuer string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*JWTVerifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("verification secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	v := new(JWTVerifier)

	v.parser = jwt.NewParser(opts...)
	v.secret = secret

	v.tracer = tracer
	v.monitor = monitor
	v.logger = logger

	return v, nil
}
