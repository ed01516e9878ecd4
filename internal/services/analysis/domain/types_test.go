package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	perr "stackscout/internal/platform/errors"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobPending, JobInProgress, true},
		{JobPending, JobFailed, true},
		{JobInProgress, JobSucceeded, true},
		{JobInProgress, JobFailed, true},
		{JobPending, JobSucceeded, false},
		{JobSucceeded, JobFailed, false},
		{JobFailed, JobSucceeded, false},
		{JobFailed, JobInProgress, false},
		{JobSucceeded, JobInProgress, false},
		{JobInProgress, JobPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()

	if !JobPending.InFlight() || !JobInProgress.InFlight() || JobFailed.InFlight() {
		t.Fatal("in flight predicate wrong")
	}
	if !JobSucceeded.Terminal() || !JobFailed.Terminal() || JobInProgress.Terminal() {
		t.Fatal("terminal predicate wrong")
	}
}

func TestUnionTags(t *testing.T) {
	t.Parallel()

	got := UnionTags([][]string{{"ts", "node"}, {"ts", "css"}})
	if want := []string{"css", "node", "ts"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("union = %v, want %v", got, want)
	}
	if got := UnionTags(nil); got == nil || len(got) != 0 {
		t.Fatalf("empty union should be an empty non-nil slice, got %#v", got)
	}
	if got := UnionTags([][]string{{" go ", ""}}); !reflect.DeepEqual(got, []string{"go"}) {
		t.Fatalf("blank tags should be dropped, got %v", got)
	}
}

func TestTrimErr(t *testing.T) {
	t.Parallel()

	if got := TrimErr("short"); got != "short" {
		t.Fatalf("short text changed: %q", got)
	}
	long := strings.Repeat("é", 400) // 800 bytes
	got := TrimErr(long)
	if len(got) > MaxErrorLen || !strings.HasPrefix(long, got) {
		t.Fatalf("bad trim, len=%d", len(got))
	}
	if len(got) != MaxErrorLen {
		t.Fatalf("expected cut on the rune boundary at %d, got %d", MaxErrorLen, len(got))
	}
}

func TestSentinelCodes(t *testing.T) {
	t.Parallel()

	err := perr.Tag(ErrCloneFailed, errors.New("exit status 128"))
	if !errors.Is(err, ErrCloneFailed) || perr.CodeOf(err) != perr.ErrorCodeUnavailable {
		t.Fatalf("clone tag lost: %v", err)
	}
	if perr.HTTPStatus(ErrSweepInProgress) != 409 {
		t.Fatalf("sweep in progress should be 409")
	}
	if errors.Is(ErrDuplicateInFlightJob, ErrSweepInProgress) {
		t.Fatalf("distinct sentinels must not match")
	}
}
