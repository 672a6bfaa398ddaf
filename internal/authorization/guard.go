// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/pkg/authentication"
)

const (
	outcomeAllow = "allow"
	outcomeDeny  = "deny"
	outcomeError = "error"
)

// Requirement declares the roles needed to call one route of a module.
// An empty Roles slice only requires authentication.
type Requirement struct {
	Method  string
	Pattern string
	Roles   []Role
}

// Route binds a Requirement to the handler serving it.
type Route struct {
	Requirement
	Handler http.HandlerFunc
}

// Guard decides whether an authenticated caller may act on an organization.
// Each module builds its own Guard over the resolver it trusts.
type Guard struct {
	resolver MembershipResolverInterface
	module   string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Authorize returns the caller's role in orgID when it satisfies required.
// Resolver failures are reported as ErrMembershipLookup and are never retried.
func (g *Guard) Authorize(ctx context.Context, identity authentication.Identity, required []Role, orgID string) (Role, error) {
	ctx, span := g.tracer.Start(ctx, "authorization.Guard.Authorize")
	defer span.End()

	if len(required) == 0 {
		g.record(outcomeAllow)
		return "", nil
	}

	if orgID == "" {
		return "", g.deny(identity, orgID, ErrOrganizationContextRequired)
	}

	role, found, err := g.resolver.ResolveRole(ctx, identity.SubjectID, orgID)
	if err != nil {
		g.record(outcomeError)
		g.logger.Errorf("failed to resolve role of %s in %s: %v", identity.SubjectID, orgID, err)
		return "", fmt.Errorf("%w: %w", ErrMembershipLookup, err)
	}

	if !found {
		return "", g.deny(identity, orgID, ErrNotAMember)
	}

	if err := Evaluate(role, required); err != nil {
		return "", g.deny(identity, orgID, err)
	}

	g.record(outcomeAllow)

	return role, nil
}

// Require returns the middleware enforcing roles on a route, the authorized
// organization and role are then available through OrgIDFromContext and RoleFromContext.
func (g *Guard) Require(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authentication.IdentityFromContext(r.Context())
			if !ok {
				g.writeError(w, status.Error(codes.Unauthenticated, "unauthorized"))
				return
			}

			if len(roles) == 0 {
				g.record(outcomeAllow)
				next.ServeHTTP(w, r)
				return
			}

			orgID := ExtractOrgID(r)

			role, err := g.Authorize(r.Context(), identity, roles, orgID)
			if err != nil {
				g.writeError(w, StatusFromError(err).Err())
				return
			}

			next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), orgID, role)))
		})
	}
}

// Mount registers every route on mux behind its requirement.
func (g *Guard) Mount(mux chi.Router, routes []Route) {
	for _, route := range routes {
		mux.With(g.Require(route.Roles...)).Method(route.Method, route.Pattern, route.Handler)
	}
}

func (g *Guard) deny(identity authentication.Identity, orgID string, err error) error {
	g.record(outcomeDeny)
	g.logger.Security().AuthzFailure(identity.SubjectID, OrganizationTuple(orgID))
	g.logger.Debugf("%s denied access to %s: %v", g.module, orgID, err)

	return err
}

func (g *Guard) record(outcome string) {
	tags := map[string]string{"module": g.module, "outcome": outcome}
	if err := g.monitor.IncAuthorizationDecision(tags); err != nil {
		g.logger.Debugf("error recording authorization decision: %v", err)
	}
}

func (g *Guard) writeError(w http.ResponseWriter, err error) {
	if err := types.WriteError(w, err); err != nil {
		g.logger.Errorf("failed to write error response: %v", err)
	}
}

func NewGuard(resolver MembershipResolverInterface, module string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Guard {
	g := new(Guard)
	g.resolver = resolver
	g.module = module
	g.tracer = tracer
	g.monitor = monitor
	g.logger = logger

	return g
}
