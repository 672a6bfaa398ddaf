// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
)

const bearerPrefix = "Bearer "

type Middleware struct {
	verifier TokenVerifierInterface

	// publicMethods are full gRPC method names served without a token
	publicMethods []string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Authenticate rejects requests without a valid bearer token with a 401,
// otherwise the verified Identity is available to the handler through the context.
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Authenticate")
			defer span.End()

			token, found := m.getBearerToken(r.Header.Get("Authorization"))
			if !found {
				m.logger.Security().AuthnFailure("missing bearer token")
				m.unauthorizedResponse(w, status.New(codes.Unauthenticated, "missing authorization header"))
				return
			}

			identity, err := m.verifier.VerifyToken(ctx, token)
			if err != nil {
				m.logger.Debugf("JWT verification failed: %v", err)
				m.logger.Security().AuthnFailure(err.Error())
				m.unauthorizedResponse(w, StatusFromError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, *identity)))
		})
	}
}

// GRPCInterceptor is a unary interceptor for gRPC authentication
func (m *Middleware) GRPCInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if slices.Contains(m.publicMethods, info.FullMethod) {
		return handler(ctx, req)
	}

	ctx, span := m.tracer.Start(ctx, "authentication.Middleware.GRPCInterceptor")
	defer span.End()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	token, found := m.getBearerToken(values[0])
	if !found {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not a bearer token")
	}

	identity, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		m.logger.Debugf("gRPC JWT verification failed: %v", err)
		m.logger.Security().AuthnFailure(err.Error())
		return nil, StatusFromError(err).Err()
	}

	return handler(WithIdentity(ctx, *identity), req)
}

// Only support "Bearer <token>" format (RFC 6750)
func (m *Middleware) getBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	return token, token != ""
}

func (m *Middleware) unauthorizedResponse(w http.ResponseWriter, st *status.Status) {
	if err := types.WriteError(w, st.Err()); err != nil {
		m.logger.Errorf("failed to encode unauthorized response: %v", err)
	}
}

func NewMiddleware(verifier TokenVerifierInterface, publicMethods []string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		verifier:      verifier,
		publicMethods: publicMethods,
		tracer:        tracer,
		monitor:       monitor,
		logger:        logger,
	}
}
