// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package accounts -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package accounts -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package accounts -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func expectSpan(tracer *MockTracingInterface, name string) {
	tracer.EXPECT().Start(gomock.Any(), name).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name        string
		storageErr  error
		expectedErr error
	}{
		{
			name: "user stored with a hashed password",
		},
		{
			name:        "duplicate email",
			storageErr:  storage.ErrDuplicateKey,
			expectedErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			expectSpan(mockTracer, "accounts.Service.Register")
			mockStorage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, u *types.User) (*types.User, error) {
					if u.Email != "alice@example.com" || u.DisplayName != "Alice" {
						t.Errorf("unexpected user %+v", u)
					}

					if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")); err != nil {
						t.Errorf("password not hashed as expected: %v", err)
					}

					if tt.storageErr != nil {
						return nil, tt.storageErr
					}

					return &types.User{ID: "u1", Email: u.Email}, nil
				},
			)

			s := NewService(mockStorage, nil, mockTracer, mockMonitor, logging.NewNoopLogger())

			u, err := s.Register(context.Background(), " Alice@Example.com ", "correct horse", " Alice ")

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}

			if err != nil || u.ID != "u1" {
				t.Fatalf("unexpected result %+v, %v", u, err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &types.User{ID: "u1", Email: "alice@example.com", PasswordHash: string(hash)}
	expiresAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		password    string
		setupMocks  func(*MockStorageInterface, *MockTokenIssuerInterface)
		expectedErr error
	}{
		{
			name:     "token issued",
			password: "correct horse",
			setupMocks: func(s *MockStorageInterface, i *MockTokenIssuerInterface) {
				s.EXPECT().GetUserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
				i.EXPECT().Issue(gomock.Any(), user).Return("token", expiresAt, nil)
			},
		},
		{
			name:     "wrong password",
			password: "battery staple",
			setupMocks: func(s *MockStorageInterface, _ *MockTokenIssuerInterface) {
				s.EXPECT().GetUserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
			},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "correct horse",
			setupMocks: func(s *MockStorageInterface, _ *MockTokenIssuerInterface) {
				s.EXPECT().GetUserByEmail(gomock.Any(), "alice@example.com").Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:     "issuer failure",
			password: "correct horse",
			setupMocks: func(s *MockStorageInterface, i *MockTokenIssuerInterface) {
				s.EXPECT().GetUserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
				i.EXPECT().Issue(gomock.Any(), user).Return("", time.Time{}, errors.New("no key"))
			},
			expectedErr: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockIssuer := NewMockTokenIssuerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			expectSpan(mockTracer, "accounts.Service.Login")
			tt.setupMocks(mockStorage, mockIssuer)

			s := NewService(mockStorage, mockIssuer, mockTracer, mockMonitor, logging.NewNoopLogger())

			token, err := s.Login(context.Background(), "alice@example.com", tt.password)

			if tt.expectedErr != nil {
				if err == nil {
					t.Fatal("expected error but got none")
				}

				if errors.Is(tt.expectedErr, ErrInvalidCredentials) && !errors.Is(err, ErrInvalidCredentials) {
					t.Fatalf("expected ErrInvalidCredentials, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if token.AccessToken != "token" || !token.ExpiresAt.Equal(expiresAt) {
				t.Fatalf("unexpected token %+v", token)
			}
		})
	}
}

func TestService_LoginWithoutIssuer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTracer := NewMockTracingInterface(ctrl)
	expectSpan(mockTracer, "accounts.Service.Login")

	s := NewService(NewMockStorageInterface(ctrl), nil, mockTracer, NewMockMonitorInterface(ctrl), logging.NewNoopLogger())

	if _, err := s.Login(context.Background(), "alice@example.com", "correct horse"); !errors.Is(err, ErrLoginDisabled) {
		t.Fatalf("expected ErrLoginDisabled, got %v", err)
	}
}

func TestService_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	expectSpan(mockTracer, "accounts.Service.Search")
	mockStorage.EXPECT().SearchUsers(gomock.Any(), "ali", uint64(SearchLimit)).Return([]*types.User{{ID: "u1"}}, nil)

	s := NewService(mockStorage, nil, mockTracer, mockMonitor, logging.NewNoopLogger())

	users, err := s.Search(context.Background(), " ali ")
	if err != nil || len(users) != 1 {
		t.Fatalf("unexpected result %v, %v", users, err)
	}
}
