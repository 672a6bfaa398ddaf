// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/authentication"
)

const (
	AuthorizationServiceName = "authorization.v0.AuthorizationService"
	CheckFullMethod          = "/" + AuthorizationServiceName + "/Check"
)

// AuthorizationServiceServer lets internal services ask for an authorization decision.
// Requests carry "org_id" and a "roles" list, responses "allowed" and "role".
type AuthorizationServiceServer interface {
	Check(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var AuthorizationServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthorizationServiceName,
	HandlerType: (*AuthorizationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Check",
			Handler:    checkHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authorization/v0/authorization.proto",
}

func checkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AuthorizationServiceServer).Check(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CheckFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServiceServer).Check(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

type GRPCServer struct {
	guard GuardInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *GRPCServer) Check(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, span := s.tracer.Start(ctx, "authorization.GRPCServer.Check")
	defer span.End()

	identity, ok := authentication.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	fields := in.GetFields()

	var roles []Role
	for _, v := range fields["roles"].GetListValue().GetValues() {
		roles = append(roles, Role(v.GetStringValue()))
	}

	role, err := s.guard.Authorize(ctx, identity, roles, fields["org_id"].GetStringValue())
	if err != nil {
		return nil, StatusFromError(err).Err()
	}

	out, err := structpb.NewStruct(map[string]any{
		"allowed": true,
		"role":    role.String(),
	})
	if err != nil {
		s.logger.Errorf("failed to build check response: %v", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return out, nil
}

func (s *GRPCServer) Register(registrar grpc.ServiceRegistrar) {
	registrar.RegisterService(&AuthorizationServiceDesc, s)
}

func NewGRPCServer(guard GuardInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *GRPCServer {
	s := new(GRPCServer)
	s.guard = guard
	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
