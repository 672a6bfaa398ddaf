// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"fmt"
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port     int `envconfig:"port" default:"8080"`
	GRPCPort int `envconfig:"grpc_port" default:"50051"`

	AllowedOrigins []string `envconfig:"allowed_origins" default:"*"`

	StorageDriver string `envconfig:"storage_driver" default:"postgres"`
	DSN           string `envconfig:"DSN"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	JWTSecret     string        `envconfig:"jwt_secret"`
	JWTPrivateKey string        `envconfig:"jwt_private_key"`
	JWTPublicKey  string        `envconfig:"jwt_public_key"`
	JWTIssuer     string        `envconfig:"jwt_issuer"`
	JWTTTL        time.Duration `envconfig:"jwt_ttl" default:"1h"`

	AuthorizationBackend string `envconfig:"authorization_backend" default:"storage"`
	OpenfgaApiScheme     string `envconfig:"openfga_api_scheme" default:""`
	OpenfgaApiHost       string `envconfig:"openfga_api_host"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id" default:""`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	AuthorizationBackendStorage = "storage"
	AuthorizationBackendOpenFGA = "openfga"
)

// Validate catches combinations envconfig tags cannot express.
func (s *EnvSpec) Validate() error {
	switch s.StorageDriver {
	case StorageDriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("DSN is required with the %s storage driver", StorageDriverPostgres)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", s.StorageDriver)
	}

	if s.JWTSecret == "" && s.JWTPublicKey == "" {
		return fmt.Errorf("one of JWT_SECRET or JWT_PUBLIC_KEY is required")
	}

	if s.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	switch s.AuthorizationBackend {
	case AuthorizationBackendStorage:
	case AuthorizationBackendOpenFGA:
		if s.OpenfgaApiHost == "" || s.OpenfgaStoreId == "" {
			return fmt.Errorf("OPENFGA_API_HOST and OPENFGA_STORE_ID are required with the %s backend", AuthorizationBackendOpenFGA)
		}
	default:
		return fmt.Errorf("unknown authorization backend %q", s.AuthorizationBackend)
	}

	return nil
}
