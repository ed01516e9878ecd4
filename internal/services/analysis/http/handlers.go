// Package http provides http transport for analysis jobs and sweeps
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stackscout/internal/modkit/httpkit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"
	"stackscout/internal/platform/net/middleware"
	"stackscout/internal/services/analysis/domain"
)

// Service is what the handlers need from the analysis service
type Service interface {
	domain.ReaderPort
	domain.SweepPort
}

// Register mounts analysis endpoints on the given router
// a non nil admin port puts the sweep trigger behind bearer auth
func Register(r httpkit.Router, s Service, admin middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/jobs/{id}", h.job)
	httpkit.Get(r, "/apps/{appId}/jobs", h.jobsByApp)
	if admin == nil {
		httpkit.Post(r, "/sweeps", h.startSweep)
		return
	}
	httpkit.Protected(r, admin, func(pr httpkit.Router) {
		httpkit.Post(pr, "/sweeps", h.startSweep)
	})
}

type handlers struct{ svc Service }

// swagger:route GET /analysis/jobs/{id} Analysis analysisJob
// @Summary Analysis job with its result
// @Tags Analysis
// @Produce json
// @Param id path string true "job id"
// @Success 200 {object} domain.JobView "ok"
// @Failure 404 {object} map[string]interface{} "unknown job"
// @Router /analysis/jobs/{id} [get]
func (h *handlers) job(r *stdhttp.Request) (any, error) {
	return h.svc.Job(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route GET /analysis/apps/{appId}/jobs Analysis analysisJobsByApp
// @Summary Newest analysis jobs of a catalog entry
// @Tags Analysis
// @Produce json
// @Param appId path string true "catalog entry id"
// @Param limit query int false "max jobs, 1 to 100"
// @Success 200 {array} domain.Job "ok"
// @Failure 400 {object} map[string]interface{} "bad limit"
// @Router /analysis/apps/{appId}/jobs [get]
func (h *handlers) jobsByApp(r *stdhttp.Request) (any, error) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "limit must be between 1 and 100"), "limit")
		}
		limit = n
	}
	return h.svc.JobsByApp(r.Context(), chi.URLParam(r, "appId"), limit)
}

// swagger:route POST /analysis/sweeps Analysis analysisSweep
// @Summary Start an orchestrator sweep in the background
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]interface{} "started"
// @Failure 401 {object} map[string]interface{} "missing or wrong admin token"
// @Failure 409 {object} map[string]interface{} "a sweep is already running"
// @Router /analysis/sweeps [post]
func (h *handlers) startSweep(r *stdhttp.Request) (any, error) {
	if err := h.svc.StartSweep(r.Context()); err != nil {
		return nil, err
	}
	if uid, err := httpkit.User(r); err == nil {
		logger.C(r.Context()).Info().Str("user", uid).Msg("sweep triggered")
	}
	return httpkit.Accepted(map[string]bool{"started": true}), nil
}
