// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	Security() SecurityLoggerInterface
	Sync() error
}

// SecurityLoggerInterface emits security relevant events using the OWASP
// logging vocabulary, independently from the application log level.
type SecurityLoggerInterface interface {
	AuthnSuccess(userID string)
	AuthnFailure(reason string)
	AuthzFailure(userID, resource string)
	AdminAction(userID, action, target string)
	SystemStartup()
	SystemShutdown()
}
