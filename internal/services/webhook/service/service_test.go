package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	perr "stackscout/internal/platform/errors"
	catalog "stackscout/internal/services/catalog/domain"
	"stackscout/internal/services/webhook/domain"
	"stackscout/internal/services/webhook/repo"
)

const secret = "s3cret"

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.Snapshot
	err  error
}

func (f *fakeHistory) Append(_ context.Context, s domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, s)
	return f.err
}

func newSvc(store domain.SnapshotStore, h domain.HistorySink) *Svc {
	s := New(store, h, Config{Secret: secret, Tolerance: 5 * time.Minute})
	s.now = func() time.Time { return fixedNow }
	n := 0
	var mu sync.Mutex
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("snap-%d", n)
	}
	return s
}

func body(fullName string, capturedAt time.Time, stars int) []byte {
	return fmt.Appendf(nil, `{"event_type":"repo_updated","data":{"id":7,"full_name":%q,"stars":%d,"topics":["cli"],"languages":{"Go":1200},"captured_at":%q,"processing_status":{"readme_translated":true}}}`,
		fullName, stars, capturedAt.Format(time.RFC3339))
}

func signed(b []byte, at time.Time) (sig, ts string) {
	ts = strconv.FormatInt(at.Unix(), 10)
	return Sign(secret, ts, b), ts
}

func seededStore() *repo.Memory {
	return repo.NewMemory(
		catalog.App{ID: "a1", RepositoryFullName: "Acme/Web"},
		catalog.App{ID: "a2", RepositoryFullName: "acme/web"},
		catalog.App{ID: "a3", RepositoryFullName: "acme/other"},
	)
}

func TestReceive_AppliesToMatchingEntries(t *testing.T) {
	store := seededStore()
	hist := &fakeHistory{}
	svc := newSvc(store, hist)
	captured := fixedNow.Add(-time.Hour)
	b := body("acme/web", captured, 10)
	sig, ts := signed(b, fixedNow)

	res, err := svc.Receive(context.Background(), sig, ts, b)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if res.RepoID != 7 || res.SnapshotID != "snap-1" || res.UpdatedAppsCount != 2 || !res.ProcessedAt.Equal(fixedNow) {
		t.Fatalf("result = %+v", res)
	}
	for _, id := range []string{"a1", "a2"} {
		a, _ := store.App(id)
		if a.SnapshotID != "snap-1" || a.SnapshotCapturedAt == nil || !a.SnapshotCapturedAt.Equal(captured) {
			t.Fatalf("%s = %+v", id, a)
		}
	}
	if a, _ := store.App("a3"); a.SnapshotID != "" {
		t.Fatalf("unrelated entry touched: %+v", a)
	}
	snaps := store.Snapshots()
	if len(snaps) != 1 || snaps[0].Owner != "acme" || snaps[0].Languages["Go"] != 1200 || !snaps[0].Processing.ReadmeTranslated {
		t.Fatalf("snapshots = %+v", snaps)
	}
	if len(hist.rows) != 1 {
		t.Fatalf("history rows = %d", len(hist.rows))
	}
}

func TestReceive_InvalidSignatureMutatesNothing(t *testing.T) {
	store := seededStore()
	svc := newSvc(store, nil)
	b := body("acme/web", fixedNow, 10)
	_, ts := signed(b, fixedNow)

	cases := map[string]string{
		"wrong secret": Sign("other", ts, b),
		"no prefix":    Sign(secret, ts, b)[len(signaturePrefix):],
		"not hex":      "sha256=zz",
		"missing":      "",
	}
	for name, sig := range cases {
		_, err := svc.Receive(context.Background(), sig, ts, b)
		if !errors.Is(err, domain.ErrInvalidSignature) || perr.HTTPStatus(err) != 401 {
			t.Fatalf("%s: got %v", name, err)
		}
	}

	tampered := body("acme/web", fixedNow, 99999)
	sig, _ := signed(b, fixedNow)
	if _, err := svc.Receive(context.Background(), sig, ts, tampered); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("tampered body: got %v", err)
	}

	if len(store.Snapshots()) != 0 {
		t.Fatal("rejected delivery stored a snapshot")
	}
	for _, id := range []string{"a1", "a2", "a3"} {
		if a, _ := store.App(id); a.SnapshotID != "" {
			t.Fatalf("%s mutated: %+v", id, a)
		}
	}
}

func TestReceive_StaleTimestamp(t *testing.T) {
	svc := newSvc(seededStore(), nil)
	b := body("acme/web", fixedNow, 1)

	for _, at := range []time.Time{fixedNow.Add(-6 * time.Minute), fixedNow.Add(6 * time.Minute)} {
		sig, ts := signed(b, at)
		if _, err := svc.Receive(context.Background(), sig, ts, b); !errors.Is(err, domain.ErrStaleTimestamp) {
			t.Fatalf("at %v: got %v", at, err)
		}
	}
	sig := Sign(secret, "yesterday", b)
	if _, err := svc.Receive(context.Background(), sig, "yesterday", b); !errors.Is(err, domain.ErrStaleTimestamp) {
		t.Fatalf("non numeric ts: got %v", err)
	}

	sig, ts := signed(b, fixedNow.Add(-4*time.Minute))
	if _, err := svc.Receive(context.Background(), sig, ts, b); err != nil {
		t.Fatalf("within tolerance: %v", err)
	}
}

func TestReceive_EmptySecretRejectsAll(t *testing.T) {
	svc := New(seededStore(), nil, Config{})
	b := body("acme/web", fixedNow, 1)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	if _, err := svc.Receive(context.Background(), Sign("", ts, b), ts, b); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("got %v", err)
	}
}

func TestReceive_MalformedPayload(t *testing.T) {
	svc := newSvc(seededStore(), nil)
	cases := map[string]string{
		"not json":         `{"data":`,
		"missing name":     `{"data":{"captured_at":"2025-06-15T09:00:00Z"}}`,
		"missing captured": `{"data":{"full_name":"acme/web"}}`,
		"bad name":         `{"data":{"full_name":"acme","captured_at":"2025-06-15T09:00:00Z"}}`,
		"negative stars":   `{"data":{"full_name":"acme/web","stars":-1,"captured_at":"2025-06-15T09:00:00Z"}}`,
	}
	for name, raw := range cases {
		b := []byte(raw)
		sig, ts := signed(b, fixedNow)
		_, err := svc.Receive(context.Background(), sig, ts, b)
		if !errors.Is(err, domain.ErrMalformedPayload) || perr.HTTPStatus(err) != 400 {
			t.Fatalf("%s: got %v", name, err)
		}
	}
}

func TestReceive_NoMatchingEntries(t *testing.T) {
	store := seededStore()
	svc := newSvc(store, nil)
	b := body("nobody/here", fixedNow, 3)
	sig, ts := signed(b, fixedNow)

	res, err := svc.Receive(context.Background(), sig, ts, b)
	if err != nil || res.UpdatedAppsCount != 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if len(store.Snapshots()) != 1 {
		t.Fatal("snapshot should be kept for a future entry")
	}
}

func TestReceive_OutOfOrderKeepsNewest(t *testing.T) {
	older := fixedNow.Add(-2 * time.Hour)
	newer := fixedNow.Add(-time.Hour)

	for _, order := range [][]time.Time{{older, newer}, {newer, older}, {newer, newer, older}} {
		store := seededStore()
		svc := newSvc(store, nil)
		var newestID string
		for _, at := range order {
			b := body("acme/web", at, 1)
			sig, ts := signed(b, fixedNow)
			res, err := svc.Receive(context.Background(), sig, ts, b)
			if err != nil {
				t.Fatal(err)
			}
			if at.Equal(newer) && newestID == "" {
				newestID = res.SnapshotID
			}
		}
		a, _ := store.App("a1")
		if a.SnapshotID != newestID || !a.SnapshotCapturedAt.Equal(newer) {
			t.Fatalf("order %v: entry = %+v want snapshot %s", order, a, newestID)
		}
	}
}

func TestReceive_HistoryFailureIsNotFatal(t *testing.T) {
	svc := newSvc(seededStore(), &fakeHistory{err: errors.New("ch down")})
	b := body("acme/web", fixedNow, 1)
	sig, ts := signed(b, fixedNow)
	if _, err := svc.Receive(context.Background(), sig, ts, b); err != nil {
		t.Fatalf("history failure must not fail the delivery: %v", err)
	}
}

func TestReceive_StoreFailure(t *testing.T) {
	svc := newSvc(failingStore{}, nil)
	b := body("acme/web", fixedNow, 1)
	sig, ts := signed(b, fixedNow)
	if _, err := svc.Receive(context.Background(), sig, ts, b); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("got %v", err)
	}
}

type failingStore struct{}

func (failingStore) Apply(context.Context, domain.Snapshot) (int, error) {
	return 0, perr.DBf("connection reset")
}
