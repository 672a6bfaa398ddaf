// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/types"
)

const SearchLimit = 10

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginDisabled      = errors.New("token issuance is not configured")
)

// Token is the login response body.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	storage StorageInterface
	issuer  TokenIssuerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Service.Register")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.storage.CreateUser(
		ctx,
		&types.User{
			Email:        normalizeEmail(email),
			DisplayName:  strings.TrimSpace(displayName),
			PasswordHash: string(hash),
		},
	)

	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, ErrEmailTaken
	}

	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	return u, nil
}

// Login checks the password and issues an access token for the user.
// Unknown emails and wrong passwords are reported the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Service.Login")
	defer span.End()

	if s.issuer == nil {
		return nil, ErrLoginDisabled
	}

	u, err := s.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Security().AuthnFailure("unknown email")
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Security().AuthnFailure("password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Security().AuthnSuccess(u.ID)

	return &Token{AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) Search(ctx context.Context, term string) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Service.Search")
	defer span.End()

	return s.storage.SearchUsers(ctx, strings.TrimSpace(term), SearchLimit)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewService builds the accounts service, a nil issuer turns login off on services that only verify tokens.
func NewService(storage StorageInterface, issuer TokenIssuerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.issuer = issuer
	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
