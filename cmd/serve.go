// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/config"
	"github.com/canonical/task-manager/internal/db"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/monitoring/prometheus"
	"github.com/canonical/task-manager/internal/openfga"
	"github.com/canonical/task-manager/internal/storage"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/accounts"
	"github.com/canonical/task-manager/pkg/audit"
	"github.com/canonical/task-manager/pkg/authentication"
	"github.com/canonical/task-manager/pkg/orgs"
	"github.com/canonical/task-manager/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the HTTP API and the gRPC decision service, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// backends are the storage and authorization collaborators picked by configuration.
type backends struct {
	storage    storage.StorageInterface
	dbClient   *db.DBClient
	resolver   authorization.MembershipResolverInterface
	authorizer *authorization.Authorizer
}

func setupBackends(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*backends, error) {
	b := new(backends)

	switch specs.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using the in-memory storage, data is lost on restart")
		b.storage = storage.NewMemoryStorage(tracer, monitor, logger)
	default:
		dbClient, err := db.NewDBClient(
			db.Config{
				DSN:             specs.DSN,
				MaxConns:        specs.DBMaxConns,
				MinConns:        specs.DBMinConns,
				MaxConnLifetime: specs.DBMaxConnLifetime,
				MaxConnIdleTime: specs.DBMaxConnIdleTime,
				TracingEnabled:  specs.TracingEnabled,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create database client: %v", err)
		}

		b.dbClient = dbClient
		b.storage = storage.NewStorage(dbClient, tracer, monitor, logger)
	}

	if specs.AuthorizationBackend != config.AuthorizationBackendOpenFGA {
		b.resolver = authorization.NewStorageResolver(b.storage, tracer, monitor, logger)
		b.authorizer = authorization.NewAuthorizer(openfga.NewNoopClient(tracer, monitor, logger), tracer, monitor, logger)
		logger.Info("Resolving memberships from storage")

		return b, nil
	}

	ofga, err := openfga.NewClient(
		openfga.NewConfig(
			specs.OpenfgaApiScheme,
			specs.OpenfgaApiHost,
			specs.OpenfgaStoreId,
			specs.OpenfgaApiToken,
			specs.OpenfgaModelId,
			specs.Debug,
			tracer,
			monitor,
			logger,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openfga client: %v", err)
	}

	b.resolver = authorization.NewFGAResolver(ofga, tracer, monitor, logger)
	b.authorizer = authorization.NewAuthorizer(ofga, tracer, monitor, logger)
	logger.Info("Resolving memberships from openfga")

	return b, nil
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	if err := specs.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("task-manager", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	b, err := setupBackends(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}

	if b.dbClient != nil {
		defer b.dbClient.Close()
	}

	keys := keyConfig(specs)

	verifier, err := authentication.NewAuthenticator(keys, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to set up token verification: %w", err)
	}

	issuer, err := authentication.NewTokenIssuer(keys, tracer, monitor, logger)
	if err != nil {
		logger.Warnf("login is disabled: %v", err)
		// constructors may hand back a typed nil
		issuer = nil
	}

	auditService := audit.NewService(b.storage, tracer, monitor, logger)
	orgsService := orgs.NewService(b.storage, b.authorizer, auditService, tracer, monitor, logger)
	accountsService := accounts.NewService(b.storage, issuer, tracer, monitor, logger)

	authMiddleware := authentication.NewMiddleware(
		verifier,
		[]string{healthpb.Health_Check_FullMethodName, healthpb.Health_Watch_FullMethodName, healthpb.Health_List_FullMethodName},
		tracer,
		monitor,
		logger,
	)

	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%v", specs.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(authMiddleware.GRPCInterceptor),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	authorization.NewGRPCServer(
		authorization.NewGuard(b.resolver, "grpc", tracer, monitor, logger),
		tracer,
		monitor,
		logger,
	).Register(grpcServer)

	healthServer.SetServingStatus(authorization.AuthorizationServiceName, healthpb.HealthCheckResponse_SERVING)

	routerConfig := web.Config{
		Accounts:       accountsService,
		Orgs:           orgsService,
		Audit:          auditService,
		Resolver:       b.resolver,
		Authentication: authMiddleware,
		AllowedOrigins: specs.AllowedOrigins,
	}

	// a typed nil would defeat the router's nil checks
	if b.dbClient != nil {
		routerConfig.DBClient = b.dbClient
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      web.NewRouter(routerConfig, tracer, monitor, logger),
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infof("Starting gRPC server on port %v", specs.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			serverError = fmt.Errorf("grpc server error: %w", err)
			c <- os.Interrupt
		}
	}()

	go func() {
		logger.Infof("Starting HTTP server on port %v", specs.Port)
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
