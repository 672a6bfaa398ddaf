// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"fmt"

	"go.uber.org/zap"
)

const securityChannel = "security"

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// SecurityLogger writes OWASP formatted security events on a dedicated
// "security" named logger.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnSuccess(userID string) {
	s.l.Info(
		fmt.Sprintf("User %s login successfully", userID),
		zap.String("event", fmt.Sprintf("authn_login_success:%s", userID)),
		zap.String("type", securityChannel),
	)
}

func (s *SecurityLogger) AuthnFailure(reason string) {
	s.l.Warn(
		fmt.Sprintf("Authentication failed: %s", reason),
		zap.String("event", "authn_token_invalid"),
		zap.String("reason", reason),
		zap.String("type", securityChannel),
	)
}

func (s *SecurityLogger) AuthzFailure(userID, resource string) {
	s.l.Warn(
		fmt.Sprintf("User %s attempted to access %s without entitlement", userID, resource),
		zap.String("event", fmt.Sprintf("authz_fail:%s,%s", userID, resource)),
		zap.String("type", securityChannel),
	)
}

func (s *SecurityLogger) AdminAction(userID, action, target string) {
	s.l.Info(
		fmt.Sprintf("User %s performed %s on %s", userID, action, target),
		zap.String("event", fmt.Sprintf("authz_admin:%s,%s", userID, action)),
		zap.String("target", target),
		zap.String("type", securityChannel),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Warn("System startup", zap.String("event", "sys_startup"), zap.String("type", securityChannel))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Warn("System shutdown", zap.String("event", "sys_shutdown"), zap.String("type", securityChannel))
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l.Named(securityChannel)}
}
