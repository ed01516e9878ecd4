// Package pg opens the pgx pool every Postgres backed repo shares
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stackscout/internal/platform/logger"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	// LogSQL logs every statement at debug, slow ones are logged at warn regardless
	LogSQL bool
	Slow   time.Duration
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds a lazy pool, nothing is dialled until first use
func Open(ctx context.Context, cfg Config, log logger.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.LogSQL || cfg.Slow > 0 {
		pcfg.ConnConfig.Tracer = NewTracer(log, cfg.LogSQL, cfg.Slow)
	}
	return newPool(ctx, pcfg)
}
