// Package http provides http transport for the rank harvester
package http

import (
	stdhttp "net/http"

	"stackscout/internal/modkit/httpkit"
	"stackscout/internal/platform/net/http/bind"
	"stackscout/internal/services/harvest/domain"
)

// RankQuery is the query string of GET /rank
type RankQuery struct {
	Period string `json:"period" validate:"omitempty,oneof=daily weekly monthly"`
}

// Register mounts rank endpoints on the given router
func Register(r httpkit.Router, s domain.HarvestPort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.rank)
}

type handlers struct{ svc domain.HarvestPort }

// swagger:route GET /rank Rank rankList
// @Summary Trending repositories for a period
// @Description Harvests the rank and queues new entries for review in the background
// @Tags Rank
// @Produce json
// @Param period query string false "daily, weekly or monthly" Enums(daily, weekly, monthly)
// @Success 200 {array} domain.RepositorySummary "ok"
// @Failure 400 {object} map[string]interface{} "bad period"
// @Failure 503 {object} map[string]interface{} "rank source unavailable"
// @Router /rank [get]
func (h *handlers) rank(r *stdhttp.Request) (any, error) {
	q := RankQuery{Period: r.URL.Query().Get("period")}
	if err := bind.Struct(q); err != nil {
		return nil, err
	}
	p, err := domain.ParsePeriod(q.Period)
	if err != nil {
		return nil, err
	}
	return h.svc.Harvest(r.Context(), p)
}
