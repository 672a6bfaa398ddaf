// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"testing"
	"time"
)

func validSpec() EnvSpec {
	return EnvSpec{
		StorageDriver:        StorageDriverMemory,
		JWTSecret:            "secret",
		JWTTTL:               time.Hour,
		AuthorizationBackend: AuthorizationBackendStorage,
	}
}

func TestEnvSpecValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EnvSpec)
		expectErr bool
	}{
		{name: "memory storage with secret", mutate: func(*EnvSpec) {}},
		{name: "postgres without DSN", mutate: func(s *EnvSpec) { s.StorageDriver = StorageDriverPostgres }, expectErr: true},
		{name: "postgres with DSN", mutate: func(s *EnvSpec) { s.StorageDriver = StorageDriverPostgres; s.DSN = "postgres://localhost/db" }},
		{name: "unknown storage driver", mutate: func(s *EnvSpec) { s.StorageDriver = "sqlite" }, expectErr: true},
		{name: "no verification key", mutate: func(s *EnvSpec) { s.JWTSecret = "" }, expectErr: true},
		{name: "public key only", mutate: func(s *EnvSpec) { s.JWTSecret = ""; s.JWTPublicKey = "pem" }},
		{name: "zero ttl", mutate: func(s *EnvSpec) { s.JWTTTL = 0 }, expectErr: true},
		{name: "openfga without host", mutate: func(s *EnvSpec) { s.AuthorizationBackend = AuthorizationBackendOpenFGA }, expectErr: true},
		{
			name: "openfga configured",
			mutate: func(s *EnvSpec) {
				s.AuthorizationBackend = AuthorizationBackendOpenFGA
				s.OpenfgaApiHost = "openfga:8080"
				s.OpenfgaStoreId = "store"
			},
		},
		{name: "unknown backend", mutate: func(s *EnvSpec) { s.AuthorizationBackend = "ldap" }, expectErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			spec := validSpec()
			test.mutate(&spec)

			err := spec.Validate()
			if test.expectErr && err == nil {
				t.Fatal("expected error but got none")
			}
			if !test.expectErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
