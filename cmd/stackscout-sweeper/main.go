package main

import (
	"context"
	"flag"
	"time"

	"golang.org/x/sync/errgroup"

	"stackscout/internal/bootstrap"
	"stackscout/internal/modkit"
	"stackscout/internal/platform/config"
	"stackscout/internal/platform/version"
	analysismod "stackscout/internal/services/analysis/module"
)

func main() {
	var (
		fEnv      = flag.String("env", ".env", "dotenv file loaded before reading config")
		fMigrate  = flag.Bool("migrate", false, "apply schemas before sweeping")
		fOnce     = flag.Bool("once", false, "reap stale jobs, run one sweep and exit")
		fInline   = flag.Bool("inline-worker", false, "also run analysis jobs in this process")
		fEvery    = flag.Duration("every", 0, "sweep interval (default ANALYSIS_SWEEP_EVERY)")
		fCooldown = flag.Duration("cooldown", 0, "wait between dispatches (default ANALYSIS_COOLDOWN)")
		fConc     = flag.Int("concurrency", 0, "inline worker concurrency (default ANALYSIS_WORKER_CONCURRENCY)")
	)
	flag.Parse()

	envErr := bootstrap.LoadEnv(*fEnv)
	l := bootstrap.Logger("stackscout-sweeper")
	if envErr != nil {
		l.Panic().Err(envErr).Msg("load env failed")
	}
	root := config.New()

	ctx, stop := bootstrap.SignalContext(context.Background())
	defer stop()

	st, err := bootstrap.OpenStore(ctx, root, "sweeper", l)
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

	am := analysismod.New(
		modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l, Events: bus},
		analysismod.Options{
			SweepEvery:  *fEvery,
			Cooldown:    *fCooldown,
			Concurrency: *fConc,
		},
	)
	svc := am.Service()
	l.Info().Str("build", version.Info("stackscout-sweeper").String()).Bool("once", *fOnce).Bool("inline_worker", *fInline).Msg("starting")

	if *fOnce {
		if *fInline {
			defer svc.SubscribeInline(bus)()
		}
		if n, err := svc.ReapStale(ctx); err != nil {
			l.Error().Err(err).Msg("reap stale jobs failed")
		} else if n > 0 {
			l.Info().Int("reaped", n).Msg("stale jobs failed")
		}
		rep, err := svc.RunSweep(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("sweep failed")
		}
		l.Info().Int("seen", rep.Seen).Int("dispatched", rep.Dispatched).Int("skipped", rep.Skipped).Int("failed", rep.Failed).Msg("sweep done")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	if *fInline {
		defer svc.Subscribe(bus)()
		g.Go(func() error { return svc.Run(gctx) })
	}
	g.Go(func() error { return svc.Loop(gctx, am.Options().SweepEvery) })
	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("sweeper stopped")
	}

	done := make(chan struct{})
	go func() { am.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		l.Warn().Msg("shutdown drain timed out")
	}
}
