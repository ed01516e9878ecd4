// Package api provides the HTTP API for the application
package api

import (
	"stackscout/internal/modkit"
	"stackscout/internal/modkit/httpkit"
	"stackscout/internal/modkit/swaggerkit"
	"stackscout/internal/platform/config"
	"stackscout/internal/platform/events"
	"stackscout/internal/platform/logger"
	phttp "stackscout/internal/platform/net/http"
	"stackscout/internal/platform/net/middleware"
	"stackscout/internal/platform/store"
	analysismod "stackscout/internal/services/analysis/module"
	metamod "stackscout/internal/services/api/meta/module"
	harvestmod "stackscout/internal/services/harvest/module"
	webhookmod "stackscout/internal/services/webhook/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Events         *events.Bus
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Modules holds the mounted modules so the binary can drain them on shutdown
type Modules struct {
	Analysis *analysismod.Module
	Harvest  *harvestmod.Module
	Webhook  *webhookmod.Module
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Modules {
	deps := modkit.Deps{
		Cfg:    opt.Config,
		PG:     opt.Store.PG,
		Events: opt.Events,
	}
	if opt.Store.CH != nil {
		deps.CH = opt.Store.CH
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	jsonOnly := modkit.WithMiddlewares(middleware.AllowContentType("application/json"))
	built := Modules{
		Analysis: analysismod.New(deps, analysismod.Options{}),
		Harvest:  harvestmod.New(deps, harvestmod.Options{}),
		Webhook:  webhookmod.New(deps, webhookmod.Options{}, jsonOnly),
	}
	mods := []modkit.Module{
		metamod.New(deps),
		built.Harvest,
		built.Analysis,
		built.Webhook,
	}

	httpkit.MountAPI(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			m.MountRoutes(api)
			deps.Log.Debug().Str("module", m.Name()).Msg("module mounted")
		}
	})
	return built
}
