package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/language"

	"stackscout/internal/platform/events"
	"stackscout/internal/services/analysis/domain"
	"stackscout/internal/services/analysis/repo"
	catalog "stackscout/internal/services/catalog/domain"
	catrepo "stackscout/internal/services/catalog/repo"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// fakeCloner writes files into dest instead of cloning
type fakeCloner struct {
	files map[string]string
	err   error
	urls  []string
	mu    sync.Mutex
}

func (f *fakeCloner) Clone(_ context.Context, url, dest string) error {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for name, body := range f.files {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type fakeAnalyzer struct {
	groups [][]string
	err    error
	dirs   chan string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, dir string) ([][]string, error) {
	if f.dirs != nil {
		f.dirs <- dir
	}
	return f.groups, f.err
}

type fakeMeta struct {
	err error
}

func (f fakeMeta) QueryRepository(_ context.Context, repoURL string) (domain.RepositoryMeta, error) {
	if f.err != nil {
		return domain.RepositoryMeta{}, f.err
	}
	full, err := catalog.FullName(repoURL)
	if err != nil {
		return domain.RepositoryMeta{}, err
	}
	return domain.RepositoryMeta{FullName: full, Stars: 42}, nil
}

type fakeLease struct {
	ok       bool
	err      error
	acquires atomic.Int32
	released atomic.Bool
}

func (l *fakeLease) Acquire(context.Context) (bool, error) {
	l.acquires.Add(1)
	return l.ok, l.err
}

func (l *fakeLease) Release(context.Context) error {
	l.released.Store(true)
	return nil
}

type harness struct {
	svc     *Svc
	jobs    *repo.Memory
	catalog *catrepo.Memory
	pub     *recorder
	cloner  *fakeCloner
	an      *fakeAnalyzer
	waits   atomic.Int32
	workdir string
}

func newHarness(t *testing.T, apps ...catalog.App) *harness {
	t.Helper()
	h := &harness{
		jobs:    repo.NewMemory(),
		catalog: catrepo.NewMemory(apps...),
		pub:     &recorder{},
		cloner:  &fakeCloner{files: map[string]string{"README.md": "# hello"}},
		an:      &fakeAnalyzer{groups: [][]string{{"go"}}},
		workdir: t.TempDir(),
	}
	h.svc = h.build(Deps{}, Config{})
	return h
}

// build wires the harness fakes, non-zero fields of d and cfg win
func (h *harness) build(d Deps, cfg Config) *Svc {
	if d.Jobs == nil {
		d.Jobs = h.jobs
	}
	if d.Publisher == nil {
		d.Publisher = h.pub
	}
	if d.Catalog == nil {
		d.Catalog = h.catalog
	}
	if d.Pacer == nil {
		d.Pacer = PacerFunc(func(context.Context) error {
			h.waits.Add(1)
			return nil
		})
	}
	if d.Cloner == nil {
		d.Cloner = h.cloner
	}
	if d.Analyzer == nil {
		d.Analyzer = h.an
	}
	if d.Metadata == nil {
		d.Metadata = fakeMeta{}
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = h.workdir
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 2
	}
	if cfg.TargetLocale == language.Und {
		cfg.TargetLocale = language.MustParse("zh-CN")
	}
	s := New(d, cfg)
	s.now = func() time.Time { return fixedNow }
	var n atomic.Int32
	s.newID = func() string { return fmt.Sprintf("job-%d", n.Add(1)) }
	return s
}

func app(id, url string) catalog.App {
	return catalog.App{ID: id, Name: id, RepositoryURL: url}
}

func requested(evs []events.Event) []events.AnalysisRequested {
	var out []events.AnalysisRequested
	for _, e := range evs {
		if r, ok := e.(events.AnalysisRequested); ok {
			out = append(out, r)
		}
	}
	return out
}

func seedInFlight(t *testing.T, jobs *repo.Memory, id, appID string, startedAt time.Time) {
	t.Helper()
	_, err := jobs.CreateIfNoneInFlight(context.Background(), domain.Job{
		ID:         id,
		AppID:      appID,
		SourceKind: domain.SourceGitHub,
		Status:     domain.JobInProgress,
		CreatedAt:  startedAt,
		StartedAt:  &startedAt,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
}

func isEmptyDir(t *testing.T, dir string) bool {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return len(files) == 0
}
