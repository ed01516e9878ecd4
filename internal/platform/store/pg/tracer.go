package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"stackscout/internal/platform/logger"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	args  []any
	begin time.Time
}

// Tracer is a pgx.QueryTracer writing one line per statement
type Tracer struct {
	log  logger.Logger
	all  bool
	slow time.Duration
	now  func() time.Time
}

var _ pgx.QueryTracer = (*Tracer)(nil)

// NewTracer logs every statement when all is set, and statements slower than slow at warn
func NewTracer(log logger.Logger, all bool, slow time.Duration) *Tracer {
	return &Tracer{log: log.With().Str("component", "pg").Logger(), all: all, slow: slow, now: time.Now}
}

// TraceQueryStart stashes the statement on ctx for TraceQueryEnd
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: d.SQL, args: d.Args, begin: t.now()})
}

// TraceQueryEnd logs the finished statement
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	took := t.now().Sub(st.begin)
	slow := t.slow > 0 && took >= t.slow

	evt := t.log.Debug()
	switch {
	case slow:
		evt = t.log.Warn()
	case !t.all:
		return
	}
	evt.Str("sql", compact(st.sql)).
		Int("args", len(st.args)).
		Int64("rows", d.CommandTag.RowsAffected()).
		Dur("took", took).
		Bool("slow", slow).
		Err(d.Err).
		Msg("pg query")
}

// compact folds runs of whitespace so multi line statements fit on one log line
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }
