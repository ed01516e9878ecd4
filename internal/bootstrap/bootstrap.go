// Package bootstrap holds the process setup shared by the stackscout binaries
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stackscout/internal/platform/config"
	"stackscout/internal/platform/events"
	"stackscout/internal/platform/logger"
	"stackscout/internal/platform/store"
	analysisrepo "stackscout/internal/services/analysis/repo"
	catrepo "stackscout/internal/services/catalog/repo"
	webhookrepo "stackscout/internal/services/webhook/repo"
)

// LoadEnv reads .env files into the process env, existing vars win
// a missing file is not an error
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Logger initialises the root logger from LOG_*, service names the binary unless LOG_SERVICE is set
func Logger(service string) *logger.Logger {
	opt := logger.FromEnv()
	if opt.Service == "" {
		opt.Service = service
	}
	logger.Init(opt)
	return logger.Get()
}

// SignalContext is cancelled on SIGINT or SIGTERM
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// StoreConfig reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_*
// ClickHouse stays disabled unless SERVICE_CLICKHOUSE_DBURL is set
func StoreConfig(root config.Conf, tag string) store.Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	chURL := ch.MayString("DBURL", "")
	return store.Config{
		PG: store.PGConfig{
			Enabled:        true,
			URL:            pg.MustString("DBURL"),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 4)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			Slow:           pg.MayDuration("SLOW", 500*time.Millisecond),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 8),
			TxRetries:      pg.MayInt("TX_RETRIES", 3),
		},
		CH: store.CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientName: "stackscout",
			ClientTag:  tag,
		},
	}
}

// OpenStore opens the platform store for the named binary
func OpenStore(ctx context.Context, root config.Conf, tag string, l *logger.Logger) (*store.Store, error) {
	return store.Open(ctx, StoreConfig(root, tag), store.WithLogger(*l))
}

// NewBus builds the event bus, with a kafka sink when EVENTS_KAFKA_BROKERS is set
func NewBus(root config.Conf, l *logger.Logger) (*events.Bus, error) {
	opts := []events.Option{events.WithLogger(l.With().Str("component", "events").Logger())}
	if kc := events.KafkaFromConfig(root); kc.Enabled() {
		sink, err := events.NewKafkaSink(kc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, events.WithSink(sink))
	}
	return events.NewBus(opts...), nil
}

type step struct {
	name string
	fn   func(context.Context) error
}

// Migrate applies every schema in dependency order
func Migrate(ctx context.Context, st *store.Store) error {
	if st.PG == nil {
		return errors.New("bootstrap: migrate needs postgres")
	}
	steps := []step{
		{"catalog", func(ctx context.Context) error { return catrepo.Migrate(ctx, st.PG) }},
		{"analysis", func(ctx context.Context) error { return analysisrepo.Migrate(ctx, st.PG) }},
		{"webhook", func(ctx context.Context) error { return webhookrepo.Migrate(ctx, st.PG) }},
	}
	if st.CH != nil {
		steps = append(steps, step{"snapshot history", func(ctx context.Context) error { return webhookrepo.MigrateHistory(ctx, st.CH) }})
	}
	log := logger.Named("migrate")
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
		log.Info().Str("schema", s.name).Msg("schema applied")
	}
	return nil
}
