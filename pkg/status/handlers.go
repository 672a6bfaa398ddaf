// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/canonical/task-manager/internal/http/types"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/tracing"
	"github.com/canonical/task-manager/internal/version"
)

const readinessTimeout = 2 * time.Second

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Name    string `json:"name"`
}

type Status struct {
	Status    string     `json:"status"`
	BuildInfo *BuildInfo `json:"buildInfo"`
}

type API struct {
	dependencies map[string]PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/ready", a.ready)
	mux.Get("/api/v0/version", a.version)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	a.writeJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: NewBuildInfo()})
}

// ready pings every dependency and reports the first one that is down.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	for name, dep := range a.dependencies {
		err := dep.Ping(ctx)

		availability := 1.0
		if err != nil {
			availability = 0
		}

		if merr := a.monitor.SetDependencyAvailability(map[string]string{"component": name}, availability); merr != nil {
			a.logger.Debugf("failed to set dependency availability: %v", merr)
		}

		if err != nil {
			a.logger.Errorf("dependency %s is not available: %v", name, err)
			a.writeError(w, grpcstatus.Errorf(codes.Unavailable, "%s is not available", name))
			return
		}
	}

	a.writeJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: NewBuildInfo()})
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.version")
	defer span.End()

	a.writeJSON(w, http.StatusOK, NewBuildInfo())
}

func (a *API) writeJSON(w http.ResponseWriter, code int, body any) {
	if err := types.WriteJSON(w, code, body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	if err := types.WriteError(w, err); err != nil {
		a.logger.Errorf("failed to encode error response: %v", err)
	}
}

func NewBuildInfo() *BuildInfo {
	info := &BuildInfo{Name: "task-manager", Version: version.Version}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info.Commit = s.Value
		}
	}

	return info
}

// NewAPI takes the named dependencies checked by the readiness endpoint, nil values are skipped.
func NewAPI(dependencies map[string]PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.dependencies = make(map[string]PingerInterface, len(dependencies))
	for name, dep := range dependencies {
		if dep != nil {
			a.dependencies[name] = dep
		}
	}

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
