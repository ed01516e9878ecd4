package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"
	"stackscout/internal/platform/store/pg"
)

// pgxQuerier is what a pool and a transaction have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxAdapter struct{ q pgxQuerier }

func (a pgxAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return a.q.Exec(ctx, sql, args...)
}

func (a pgxAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (a pgxAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.q.QueryRow(ctx, sql, args...)
}

// pgStore is the TxRunner over a pool
type pgStore struct {
	pgxAdapter
	pool    *pgxpool.Pool
	retries uint64
}

func (p *pgStore) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *pgStore) Close() error {
	p.pool.Close()
	return nil
}

// Tx retries fn while Postgres reports a serialization failure or deadlock
func (p *pgStore) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	attempt := func() error {
		err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
			return fn(pgxAdapter{q: tx})
		})
		if err != nil && !perr.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(attempt, retryPolicy(ctx, 20*time.Millisecond, 500*time.Millisecond, p.retries))
}

func retryPolicy(ctx context.Context, first, ceiling time.Duration, retries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = first
	b.MaxInterval = ceiling
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// openPG builds the pool and waits until Postgres answers a ping
func openPG(ctx context.Context, cfg PGConfig, log logger.Logger) (*pgStore, error) {
	cfg = cfg.withDefaults()
	pool, err := pg.Open(ctx, pg.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		LogSQL:   cfg.LogSQL,
		Slow:     cfg.Slow,
	}, log)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open postgres")
	}

	tries := 0
	ping := func() error {
		tries++
		pctx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
		return pool.Ping(pctx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", tries).Dur("retry_in", wait).Msg("postgres not ready")
	}
	policy := retryPolicy(ctx, 150*time.Millisecond, 2*time.Second, uint64(cfg.ConnectRetries))
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		pool.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", tries)
	}
	return &pgStore{pgxAdapter: pgxAdapter{q: pool}, pool: pool, retries: uint64(cfg.TxRetries)}, nil
}
