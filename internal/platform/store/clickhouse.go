package store

import (
	"context"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/store/ch"
)

type chStore struct{ c *ch.CH }

var _ Clickhouse = chStore{}

func openCH(ctx context.Context, cfg CHConfig) (chStore, error) {
	c, err := ch.Open(ctx, ch.Config{URL: cfg.URL, Role: cfg.ClientName, Tag: cfg.ClientTag})
	if err != nil {
		return chStore{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open clickhouse")
	}
	return chStore{c: c}, nil
}

func (s chStore) Insert(ctx context.Context, table string, rows [][]any) error {
	return s.c.Insert(ctx, table, rows)
}

func (s chStore) Exec(ctx context.Context, sql string, args ...any) error {
	return s.c.Exec(ctx, sql, args...)
}

func (s chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := s.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (s chStore) Ping(ctx context.Context) error { return s.c.Ping(ctx) }

func (s chStore) Close() error { return s.c.Close() }

// chRows drops the close error, Err reports anything that matters
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
