package store

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	perr "stackscout/internal/platform/errors"
)

type fakeRows struct {
	vals []int
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*int)) = r.vals[r.i-1]
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     {}

type fakeQ struct {
	rows     *fakeRows
	affected int64
	err      error
}

func (q fakeQ) Exec(context.Context, string, ...any) (CommandTag, error) {
	return pgconn.NewCommandTag("UPDATE " + strconv.FormatInt(q.affected, 10)), q.err
}

func (q fakeQ) Query(context.Context, string, ...any) (Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func (q fakeQ) QueryRow(context.Context, string, ...any) Row { return q.rows }

func scanInt(r Row) (int, error) {
	var n int
	err := r.Scan(&n)
	return n, err
}

func TestOne(t *testing.T) {
	ctx := context.Background()
	n, err := One(ctx, fakeQ{rows: &fakeRows{vals: []int{4, 5}}}, scanInt, "SELECT n")
	if err != nil || n != 4 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := One(ctx, fakeQ{rows: &fakeRows{}}, scanInt, "SELECT n"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("empty: %v", err)
	}
	boom := errors.New("boom")
	if _, err := One(ctx, fakeQ{rows: &fakeRows{err: boom}}, scanInt, "SELECT n"); !errors.Is(err, boom) {
		t.Fatalf("rows err: %v", err)
	}
}

func TestMany(t *testing.T) {
	got, err := Many(context.Background(), fakeQ{rows: &fakeRows{vals: []int{1, 2, 3}}}, scanInt, "SELECT n")
	if err != nil || len(got) != 3 || got[2] != 3 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestExecOne(t *testing.T) {
	ctx := context.Background()
	if err := ExecOne(ctx, fakeQ{affected: 1}, "UPDATE"); err != nil {
		t.Fatal(err)
	}
	if err := ExecOne(ctx, fakeQ{affected: 0}, "UPDATE"); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("zero rows: %v", err)
	}
}

func TestOpen_NothingEnabled(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil || s.PG != nil || s.CH != nil {
		t.Fatalf("s=%+v err=%v", s, err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_BadPostgresURL(t *testing.T) {
	_, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://nope"}})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("got %v", err)
	}
}

func TestPGConfigDefaults(t *testing.T) {
	c := PGConfig{}.withDefaults()
	if c.ConnectRetries != 8 || c.PingTimeout == 0 || c.TxRetries != 3 {
		t.Fatalf("defaults = %+v", c)
	}
}
