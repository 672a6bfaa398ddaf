// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

// Tuple is a relationship between a user and an object.
type Tuple struct {
	User     string
	Relation string
	Object   string
}

func NewTuple(user, relation, object string) *Tuple {
	return &Tuple{User: user, Relation: relation, Object: object}
}

type Client struct {
	client *client.OpenFgaClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Client) Check(ctx context.Context, user, relation, object string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.Check")
	defer span.End()

	r, err := c.client.Check(ctx).Body(
		client.ClientCheckRequest{
			User:     user,
			Relation: relation,
			Object:   object,
		},
	).Execute()
	if err != nil {
		c.logger.Errorf("issues performing check operation: %s", err)
		return false, err
	}

	return r.GetAllowed(), nil
}

// ReadTuples lists the stored tuples matching the non empty filters, one page at a time.
func (c *Client) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) ([]Tuple, string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadTuples")
	defer span.End()

	body := client.ClientReadRequest{}
	if user != "" {
		body.User = fga.PtrString(user)
	}
	if relation != "" {
		body.Relation = fga.PtrString(relation)
	}
	if object != "" {
		body.Object = fga.PtrString(object)
	}

	options := client.ClientReadOptions{}
	if continuationToken != "" {
		options.ContinuationToken = fga.PtrString(continuationToken)
	}

	r, err := c.client.Read(ctx).Body(body).Options(options).Execute()
	if err != nil {
		c.logger.Errorf("issues performing read operation: %s", err)
		return nil, "", err
	}

	tuples := make([]Tuple, 0, len(r.GetTuples()))
	for _, t := range r.GetTuples() {
		key := t.GetKey()
		tuples = append(tuples, Tuple{User: key.GetUser(), Relation: key.GetRelation(), Object: key.GetObject()})
	}

	return tuples, r.GetContinuationToken(), nil
}

func (c *Client) WriteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuple")
	defer span.End()

	_, err := c.client.WriteTuples(ctx).Body(
		client.ClientWriteTuplesBody{
			{User: user, Relation: relation, Object: object},
		},
	).Execute()
	if err != nil {
		c.logger.Errorf("issues performing write operation: %s", err)
	}

	return err
}

func (c *Client) DeleteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuple")
	defer span.End()

	_, err := c.client.DeleteTuples(ctx).Body(
		client.ClientDeleteTuplesBody{
			{User: user, Relation: relation, Object: object},
		},
	).Execute()
	if err != nil {
		c.logger.Errorf("issues performing delete operation: %s", err)
	}

	return err
}

func (c *Client) CreateStore(ctx context.Context, name string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CreateStore")
	defer span.End()

	r, err := c.client.CreateStore(ctx).Body(client.ClientCreateStoreRequest{Name: name}).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to create store: %w", err)
	}

	return r.GetId(), nil
}

func (c *Client) SetStoreID(ctx context.Context, storeID string) error {
	return c.client.SetStoreId(storeID)
}

func (c *Client) WriteModel(ctx context.Context, model *client.ClientWriteAuthorizationModelRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteModel")
	defer span.End()

	r, err := c.client.WriteAuthorizationModel(ctx).Body(*model).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to write authorization model: %w", err)
	}

	return r.GetAuthorizationModelId(), nil
}

func NewClient(cfg *Config) (*Client, error) {
	c := new(Client)

	c.tracer = cfg.Tracer
	c.monitor = cfg.Monitor
	c.logger = cfg.Logger

	scheme := cfg.ApiScheme
	if scheme == "" {
		scheme = "http"
	}

	sdk, err := client.NewSdkClient(
		&client.ClientConfiguration{
			ApiUrl:               fmt.Sprintf("%s://%s", scheme, cfg.ApiHost),
			StoreId:              cfg.StoreID,
			AuthorizationModelId: cfg.AuthModelID,
			Credentials: &credentials.Credentials{
				Method: credentials.CredentialsMethodApiToken,
				Config: &credentials.Config{
					ApiToken: cfg.ApiToken,
				},
			},
			Debug: cfg.Debug,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("issues setting up openfga client: %w", err)
	}

	c.client = sdk

	return c, nil
}
