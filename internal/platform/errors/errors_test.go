package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorCode_Status(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeUnknown:         http.StatusInternalServerError,
		ErrorCodePanic:           http.StatusInternalServerError,
		ErrorCodeDB:              http.StatusInternalServerError,
		ErrorCodeUnavailable:     http.StatusServiceUnavailable,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeJSON:            http.StatusBadRequest,
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeDuplicateKey:    http.StatusConflict,
		ErrorCodeConflict:        http.StatusConflict,
		ErrorCodeUnauthorized:    http.StatusUnauthorized,
		ErrorCode(999):           http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := code.Status(); got != want {
			t.Errorf("code %d: status %d want %d", code, got, want)
		}
	}
}

func TestWrap_KeepsCauseAndClientMessage(t *testing.T) {
	cause := stderrs.New("dial tcp: refused")
	err := Wrapf(cause, ErrorCodeUnavailable, "github %s", "search")

	if err.Error() != "github search: dial tcp: refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !stderrs.Is(err, cause) || Root(err) != cause {
		t.Fatal("cause not reachable")
	}
	w := WireFrom(fmt.Errorf("outer: %w", err))
	if w.Code != ErrorCodeUnavailable || w.Message != "github search" {
		t.Fatalf("wire = %+v", w)
	}
	if HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", HTTPStatus(err))
	}
}

func TestTag_MatchesSentinel(t *testing.T) {
	sentinel := New(ErrorCodeValidation, "malformed payload")
	cause := WithField(Newf(ErrorCodeValidation, "stars must be 0 or greater"), "stars")

	err := Tag(sentinel, cause)
	if !Is(err, sentinel) || !Is(err, cause) {
		t.Fatal("Is must match both sentinel and cause")
	}
	w := WireFrom(err)
	if w.Message != "malformed payload" || w.Field != "stars" || w.Code != ErrorCodeValidation {
		t.Fatalf("wire = %+v", w)
	}
	if Is(New(ErrorCodeValidation, "malformed payload"), sentinel) {
		t.Fatal("equal text is not the same sentinel")
	}
}

func TestWithField_CopyOnWrite(t *testing.T) {
	base := InvalidArgf("bad period")
	named := WithField(base, "period")
	if e, _ := As(base); e.Field() != "" {
		t.Fatal("original mutated")
	}
	if e, _ := As(named); e.Field() != "period" || e.Code() != ErrorCodeInvalidArgument {
		t.Fatalf("named = %+v", e)
	}
	foreign := stderrs.New("x")
	if WithField(foreign, "f") != foreign {
		t.Fatal("foreign errors pass through")
	}
}

func TestForeignErrorsAreUnknown(t *testing.T) {
	err := stderrs.New("boom")
	if CodeOf(err) != ErrorCodeUnknown || HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatal("foreign error should map to unknown")
	}
	if WireFrom(nil) != (Wire{}) {
		t.Fatal("nil wire should be zero")
	}
	if !IsCode(ErrNotFound, ErrorCodeNotFound) {
		t.Fatal("ErrNotFound code")
	}
}

func TestFromPostgresf(t *testing.T) {
	if FromPostgresf(nil, "x") != nil {
		t.Fatal("nil in, nil out")
	}
	cases := []struct {
		state string
		col   string
		want  ErrorCode
	}{
		{pgUniqueViolation, "", ErrorCodeDuplicateKey},
		{pgNotNullViolation, "repository_url", ErrorCodeValidation},
		{pgCannotConnectNow, "", ErrorCodeUnavailable},
		{"XX000", "", ErrorCodeDB},
	}
	for _, c := range cases {
		err := FromPostgresf(fmt.Errorf("exec: %w", &pgconn.PgError{Code: c.state, ColumnName: c.col}), "insert job %s", "j1")
		if CodeOf(err) != c.want {
			t.Errorf("%s: code %d want %d", c.state, CodeOf(err), c.want)
		}
		if w := WireFrom(err); w.Message != "insert job j1" || w.Field != c.col {
			t.Errorf("%s: wire %+v", c.state, w)
		}
	}
	if CodeOf(FromPostgresf(stderrs.New("conn reset"), "q")) != ErrorCodeDB {
		t.Fatal("non pg errors are DB errors")
	}
}

func TestIsRetryable(t *testing.T) {
	yes := []error{
		&pgconn.PgError{Code: pgSerialization},
		fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgDeadlock}),
		stderrs.New("commit unexpectedly resulted in rollback"),
	}
	for _, err := range yes {
		if !IsRetryable(err) {
			t.Errorf("%v should be retryable", err)
		}
	}
	no := []error{
		nil,
		context.Canceled,
		fmt.Errorf("q: %w", context.DeadlineExceeded),
		&pgconn.PgError{Code: pgUniqueViolation},
		stderrs.New("syntax error"),
	}
	for _, err := range no {
		if IsRetryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}
