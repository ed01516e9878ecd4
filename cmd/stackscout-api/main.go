// @title         Stackscout API
// @version       0.1.0
// @description   Trending repository harvest, stack analysis and snapshot webhooks

package main

import (
	"context"
	"flag"
	"time"

	"stackscout/internal/bootstrap"
	"stackscout/internal/platform/config"
	phttp "stackscout/internal/platform/net/http"
	"stackscout/internal/platform/version"
	"stackscout/internal/services/api"
)

func main() {
	var (
		fEnv     = flag.String("env", ".env", "dotenv file loaded before reading config")
		fMigrate = flag.Bool("migrate", false, "apply schemas before serving")
	)
	flag.Parse()

	envErr := bootstrap.LoadEnv(*fEnv)
	l := bootstrap.Logger("stackscout-api")
	if envErr != nil {
		l.Panic().Err(envErr).Msg("load env failed")
	}
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	ctx, stop := bootstrap.SignalContext(context.Background())
	defer stop()

	st, err := bootstrap.OpenStore(ctx, root, "api", l)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if *fMigrate {
		if err := bootstrap.Migrate(ctx, st); err != nil {
			l.Panic().Err(err).Msg("migrate failed")
		}
	}

	bus, err := bootstrap.NewBus(root, l)
	if err != nil {
		l.Panic().Err(err).Msg("event bus failed")
	}
	defer func() { _ = bus.Close() }()

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	mods := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Events:         bus,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	l.Info().Str("build", version.Info("stackscout-api").String()).Str("addr", srv.Addr()).Msg("serving")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}

	// detached sweeps and downstream harvest runs finish before the store closes
	drained := make(chan struct{})
	go func() {
		mods.Analysis.Wait()
		mods.Harvest.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(30 * time.Second):
		l.Warn().Msg("shutdown drain timed out")
	}
}
