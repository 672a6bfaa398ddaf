// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/db"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/accounts"
	"github.com/canonical/task-manager/pkg/audit"
	"github.com/canonical/task-manager/pkg/metrics"
	"github.com/canonical/task-manager/pkg/orgs"
	"github.com/canonical/task-manager/pkg/status"
)

type AuthenticatorInterface interface {
	Authenticate() func(http.Handler) http.Handler
}

// Config holds the collaborators the router mounts endpoints for.
// DBClient is nil with the memory storage driver, mutating requests then run without a transaction.
type Config struct {
	Accounts       accounts.ServiceInterface
	Orgs           orgs.ServiceInterface
	Audit          audit.ServiceInterface
	Resolver       authorization.MembershipResolverInterface
	Authentication AuthenticatorInterface
	DBClient       db.DBClientInterface
	AllowedOrigins []string
}

func NewRouter(
	cfg Config,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.AllowedOrigins),
	)

	if cfg.DBClient != nil {
		middlewares = append(middlewares, db.TransactionMiddleware(cfg.DBClient, logger))
	}

	router.Use(middlewares...)

	dependencies := make(map[string]status.PingerInterface)
	if cfg.DBClient != nil {
		dependencies["database"] = cfg.DBClient
	}

	accountsAPI := accounts.NewAPI(cfg.Accounts, tracer, monitor, logger)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(dependencies, tracer, monitor, logger).RegisterEndpoints(router)
	accountsAPI.RegisterPublicEndpoints(router)

	router.Group(func(r chi.Router) {
		r.Use(cfg.Authentication.Authenticate())

		accountsAPI.RegisterEndpoints(r)

		orgs.NewAPI(
			cfg.Orgs,
			authorization.NewGuard(cfg.Resolver, "orgs", tracer, monitor, logger),
			tracer,
			monitor,
			logger,
		).RegisterEndpoints(r)

		audit.NewAPI(
			cfg.Audit,
			authorization.NewGuard(cfg.Resolver, "audit", tracer, monitor, logger),
			tracer,
			monitor,
			logger,
		).RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
