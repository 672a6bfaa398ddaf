// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"fmt"
	"time"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

// KeyConfig holds the token key material shared by issuing and verifying services.
// A public key takes precedence over the shared secret.
type KeyConfig struct {
	Secret     string
	PrivateKey string
	PublicKey  string
	Issuer     string
	TTL        time.Duration
}

// NewAuthenticator picks the token verifier matching the configured key material.
func NewAuthenticator(cfg KeyConfig, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (TokenVerifierInterface, error) {
	if cfg.PublicKey != "" {
		logger.Info("Verifying tokens with the configured public key")
		return NewKeySetVerifier([]byte(cfg.PublicKey), cfg.Issuer, tracer, monitor, logger)
	}

	if cfg.Secret != "" {
		logger.Info("Verifying tokens with the shared secret")
		return NewJWTVerifier([]byte(cfg.Secret), cfg.Issuer, tracer, monitor, logger)
	}

	return nil, fmt.Errorf("no token verification key configured")
}

// NewTokenIssuer picks the token issuer matching the configured key material.
func NewTokenIssuer(cfg KeyConfig, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (TokenIssuerInterface, error) {
	if cfg.PrivateKey != "" {
		return NewKeyPairIssuer([]byte(cfg.PrivateKey), cfg.Issuer, cfg.TTL, tracer, monitor, logger)
	}

	if cfg.Secret != "" {
		return NewHMACIssuer([]byte(cfg.Secret), cfg.Issuer, cfg.TTL, tracer, monitor, logger)
	}

	return nil, fmt.Errorf("no token signing key configured")
}
