// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"fmt"

	"github.com/openfga/go-sdk/client"
	"github.com/openfga/language/pkg/go/transformer"
	"google.golang.org/protobuf/encoding/protojson"
)

// each relation implies the ones below it, mirroring Role.Rank
const v0Model = `model
  schema 1.1

type user

type organization
  relations
    define owner: [user]
    define admin: [user] or owner
    define viewer: [user] or admin
`

var models = map[string]string{
	"v0": v0Model,
}

type AuthorizationModelProvider struct {
	version string
}

// GetModel compiles the DSL of the provider's version into a model write request.
func (p *AuthorizationModelProvider) GetModel() (*client.ClientWriteAuthorizationModelRequest, error) {
	dsl, ok := models[p.version]
	if !ok {
		return nil, fmt.Errorf("unknown authorization model version %q", p.version)
	}

	model, err := transformer.TransformDSLToProto(dsl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}

	raw, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode authorization model: %w", err)
	}

	req := new(client.ClientWriteAuthorizationModelRequest)
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, fmt.Errorf("failed to decode authorization model: %w", err)
	}

	return req, nil
}

func NewAuthorizationModelProvider(version string) *AuthorizationModelProvider {
	return &AuthorizationModelProvider{version: version}
}
