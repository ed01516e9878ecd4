// Package http serves liveness, readiness and build info under /meta
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"stackscout/internal/modkit/httpkit"
	"stackscout/internal/platform/version"
)

// ReadyTimeout bounds all readiness probes together
const ReadyTimeout = 2 * time.Second

// Check probes one dependency, a failing Required check makes the service unready
type Check struct {
	Name     string
	Required bool
	Ping     func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      []Check
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Service string    `json:"service" example:"stackscout-api"`
	Started time.Time `json:"started"`
	Uptime  int64     `json:"uptime_s" example:"300"`
}

// CheckResult is the outcome of one probe
type CheckResult struct {
	Name     string `json:"name" example:"postgres"`
	Required bool   `json:"required"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
	TookMS   int64  `json:"took_ms"`
}

// ReadyResponse summarises readiness, Status is ok, degraded or fail
type ReadyResponse struct {
	Status string        `json:"status" example:"ok"`
	Checks []CheckResult `json:"checks"`
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes on r
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// @Summary Liveness and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC(),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness, 503 when a required dependency is down
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()

	results := make([]CheckResult, len(h.deps.Checks))
	var g errgroup.Group
	for i, c := range h.deps.Checks {
		g.Go(func() error {
			start := h.now()
			err := c.Ping(ctx)
			results[i] = CheckResult{Name: c.Name, Required: c.Required, OK: err == nil, TookMS: h.now().Sub(start).Milliseconds()}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := ReadyResponse{Status: "ok", Checks: results}
	for _, res := range results {
		switch {
		case res.OK:
		case res.Required:
			out.Status = "fail"
		case out.Status == "ok":
			out.Status = "degraded"
		}
	}
	if out.Status == "fail" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

// @Summary Build info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}
