// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger creates a new default logger
// it will need to be closed with
// ```
// defer logger.Desugar().Sync()
// ```
// to make sure all has been piped out before terminating
func NewLogger(l string) *Logger {
	var lvl string

	switch strings.ToLower(l) {
	case "debug", "info", "warn", "error":
		lvl = strings.ToLower(l)
	default:
		lvl = "error"
	}

	rawJSON := []byte(
		`{
			"level": "` + lvl + `",
			"encoding": "json",
			"outputPaths": ["stdout"],
			"errorOutputPaths": ["stderr"],
			"encoderConfig": {
				"messageKey": "message",
				"levelKey": "severity",
				"levelEncoder": "lowercase",
				"timeKey": "@timestamp",
				"timeEncoder": "rfc3339nano"
			}
		}`,
	)

	config, err := zapConfigFromJSON(rawJSON)
	if err != nil {
		panic(err)
	}

	base := zap.Must(config.Build())

	logger := new(Logger)
	logger.SugaredLogger = base.Sugar()
	logger.security = newSecurityLogger(base)

	logger.Debugf("Logging level set to %s", lvl)

	return logger
}

func zapConfigFromJSON(raw []byte) (zap.Config, error) {
	var cfg zap.Config

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	return cfg, nil
}
