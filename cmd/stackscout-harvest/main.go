package main

import (
	"context"
	"flag"
	"os"

	"stackscout/internal/bootstrap"
	"stackscout/internal/modkit"
	"stackscout/internal/modkit/module"
	"stackscout/internal/platform/config"
	"stackscout/internal/platform/version"
	harvestdom "stackscout/internal/services/harvest/domain"
	harvestmod "stackscout/internal/services/harvest/module"
)

func main() {
	var (
		fEnv     = flag.String("env", ".env", "dotenv file loaded before reading config")
		fMigrate = flag.Bool("migrate", false, "apply schemas before harvesting")
		fPeriod  = flag.String("period", "daily", "rank window: daily | weekly | monthly")
		fLimit   = flag.Int("limit", 0, "repositories per rank (default HARVEST_RANK_LIMIT)")
	)
	flag.Parse()

	// registered first so it runs after every other deferred close
	code := 0
	defer func() { os.Exit(code) }()

	envErr := bootstrap.LoadEnv(*fEnv)
	l := bootstrap.Logger("stackscout-harvest")
	if envErr != nil {
		l.Panic().Err(envErr).Msg("load env failed")
	}
	period, err := harvestdom.ParsePeriod(*fPeriod)
	if err != nil {
		l.Panic().Err(err).Str("period", *fPeriod).Msg("bad -period")
	}
	// the binary exits after one run, so downstream work stays on the calling goroutine
	_ = os.Setenv("HARVEST_ASYNC", "false")
	root := config.New()

	ctx, stop := bootstrap.SignalContext(context.Background())
	defer stop()

	st, err := bootstrap.OpenStore(ctx, root, "harvest", l)
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

	hm := harvestmod.New(
		modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l, Events: bus},
		harvestmod.Options{RankLimit: *fLimit},
	)
	ports := module.MustPortsOf[harvestmod.Ports](hm)

	l.Info().Str("build", version.Info("stackscout-harvest").String()).Str("period", string(period)).Msg("harvesting")
	list, err := ports.Harvest.Harvest(ctx, period)
	if err != nil {
		l.Error().Err(err).Msg("harvest failed")
		code = 1
		return
	}
	l.Info().Int("repositories", len(list)).Msg("harvest done")
}
