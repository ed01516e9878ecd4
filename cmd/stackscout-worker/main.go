package main

import (
	"context"
	"flag"

	"golang.org/x/sync/errgroup"

	"stackscout/internal/bootstrap"
	"stackscout/internal/modkit"
	"stackscout/internal/platform/config"
	"stackscout/internal/platform/events"
	"stackscout/internal/platform/version"
	analysismod "stackscout/internal/services/analysis/module"
)

func main() {
	var (
		fEnv     = flag.String("env", ".env", "dotenv file loaded before reading config")
		fMigrate = flag.Bool("migrate", false, "apply schemas before consuming")
		fConc    = flag.Int("concurrency", 0, "parallel jobs (default ANALYSIS_WORKER_CONCURRENCY)")
		fWorkDir = flag.String("workdir", "", "clone root (default ANALYSIS_WORKDIR)")
	)
	flag.Parse()

	envErr := bootstrap.LoadEnv(*fEnv)
	l := bootstrap.Logger("stackscout-worker")
	if envErr != nil {
		l.Panic().Err(envErr).Msg("load env failed")
	}
	root := config.New()

	kc := events.KafkaFromConfig(root)
	if !kc.Enabled() {
		l.Panic().Msg("stackscout-worker needs EVENTS_KAFKA_BROKERS, use stackscout-sweeper -inline-worker without kafka")
	}

	ctx, stop := bootstrap.SignalContext(context.Background())
	defer stop()

	st, err := bootstrap.OpenStore(ctx, root, "worker", l)
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

	// the bus forwards finished and failed events back to kafka
	bus, err := bootstrap.NewBus(root, l)
	if err != nil {
		l.Panic().Err(err).Msg("event bus failed")
	}
	defer func() { _ = bus.Close() }()

	consumer, err := events.NewKafkaConsumer(kc, bus)
	if err != nil {
		l.Panic().Err(err).Msg("kafka consumer failed")
	}

	am := analysismod.New(
		modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l, Events: bus},
		analysismod.Options{Concurrency: *fConc, WorkDir: *fWorkDir},
	)
	svc := am.Service()
	defer svc.Subscribe(bus)()

	l.Info().
		Str("build", version.Info("stackscout-worker").String()).
		Strs("brokers", kc.Brokers).
		Str("topic", kc.Topic).
		Str("group", kc.GroupID).
		Msg("consuming analysis requests")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("worker stopped")
	}
}
