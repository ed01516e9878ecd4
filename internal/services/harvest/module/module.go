// Package module wires the rank harvester into the API using modkit
package module

import (
	gh "stackscout/internal/adapters/ingest/github"
	"stackscout/internal/adapters/translate"
	modkit "stackscout/internal/modkit"
	"stackscout/internal/modkit/httpkit"
	catrepo "stackscout/internal/services/catalog/repo"
	catsvc "stackscout/internal/services/catalog/service"
	harvesthttp "stackscout/internal/services/harvest/http"
	"stackscout/internal/services/harvest/service"
)

// Module implements the harvest module
type Module struct {
	modkit.Mount

	svc   *service.Svc
	ports Ports
}

// New constructs the harvest module, opts override env derived options when non zero
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	deps.Must("harvest", modkit.NeedPG, modkit.NeedEvents)
	o := FromConfig(deps.Cfg)
	if overrides.RankLimit > 0 {
		o.RankLimit = overrides.RankLimit
	}
	if overrides.DownstreamTimeout > 0 {
		o.DownstreamTimeout = overrides.DownstreamTimeout
	}

	var tr service.Translator
	if topts := translate.OptionsFromConfig(deps.Cfg); topts.BaseURL != "" {
		tr = translate.NewClient(topts)
	}
	svc := service.New(
		gh.NewClient(gh.OptionsFromConfig(deps.Cfg)),
		tr,
		catsvc.New(deps.PG, catrepo.NewPG()),
		deps.Events,
		service.Config{
			RankLimit:         o.RankLimit,
			TargetLocale:      o.TargetLocale,
			Async:             o.Async,
			DownstreamTimeout: o.DownstreamTimeout,
		},
	)

	m := &Module{svc: svc, ports: Ports{Rank: svc, Ingest: svc, Enrich: svc, Harvest: svc}}
	m.Mount = modkit.NewMount("rank", "/rank", func(r httpkit.Router) {
		harvesthttp.Register(r, m.svc)
	}, opts...)
	return m
}

// Wait blocks until detached downstream work finishes, used on shutdown
func (m *Module) Wait() { m.svc.Wait() }
