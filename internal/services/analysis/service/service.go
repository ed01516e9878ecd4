// Package service implements the analysis orchestrator, the analysis worker and job reads
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"stackscout/internal/platform/events"
	"stackscout/internal/platform/logger"
	"stackscout/internal/services/analysis/domain"
	catalog "stackscout/internal/services/catalog/domain"
)

// EntrySource pages catalog entries for the orchestrator
type EntrySource interface {
	Search(ctx context.Context, page, limit int) ([]catalog.App, error)
}

// Cloner materializes a repository into a directory
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// StackAnalyzer returns one tag list per analyzed component of dir
type StackAnalyzer interface {
	Analyze(ctx context.Context, dir string) ([][]string, error)
}

// MetadataSource fetches hosting metadata for a repository URL
type MetadataSource interface {
	QueryRepository(ctx context.Context, repoURL string) (domain.RepositoryMeta, error)
}

// Config carries orchestrator and worker knobs
type Config struct {
	// PageSize is the catalog page size used by a sweep
	PageSize int
	// JobTTL is how long a job may stay in flight before the reaper fails it
	JobTTL time.Duration

	// WorkDir is the root under which repositories are cloned
	WorkDir string
	// TargetLocale selects the localized README variant
	TargetLocale language.Tag
	Budgets      Budgets

	// Concurrency bounds parallel jobs in Run, QueueSize bounds Enqueue
	Concurrency int
	QueueSize   int
}

// Deps are the collaborators of Svc, Lease and the worker trio are optional
type Deps struct {
	Jobs      domain.JobStore
	Publisher events.Publisher
	Catalog   EntrySource
	Lease     domain.Lease
	Pacer     Pacer

	Cloner   Cloner
	Analyzer StackAnalyzer
	Metadata MetadataSource
}

// Svc implements the analysis ports
type Svc struct {
	jobs    domain.JobStore
	pub     events.Publisher
	catalog EntrySource
	lease   domain.Lease
	pacer   Pacer

	cloner   Cloner
	analyzer StackAnalyzer
	meta     MetadataSource

	cfg Config
	log *logger.Logger

	now   func() time.Time
	newID func() string

	sweeping atomic.Bool
	inflight sync.WaitGroup
	queue    chan events.AnalysisRequested
}

var (
	_ domain.SweepPort  = (*Svc)(nil)
	_ domain.WorkerPort = (*Svc)(nil)
	_ domain.ReaderPort = (*Svc)(nil)
)

// New constructs the analysis service
func New(d Deps, cfg Config) *Svc {
	if d.Jobs == nil || d.Publisher == nil {
		panic("analysis.Service requires a job store and a publisher")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 2 * time.Hour
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = defaultWorkDir()
	}
	if cfg.TargetLocale == language.Und {
		cfg.TargetLocale = language.SimplifiedChinese
	}
	cfg.Budgets = cfg.Budgets.withDefaults()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Concurrency * 4
	}
	pacer := d.Pacer
	if pacer == nil {
		pacer = NewIntervalPacer(defaultCooldown)
	}
	return &Svc{
		jobs:     d.Jobs,
		pub:      d.Publisher,
		catalog:  d.Catalog,
		lease:    d.Lease,
		pacer:    pacer,
		cloner:   d.Cloner,
		analyzer: d.Analyzer,
		meta:     d.Metadata,
		cfg:      cfg,
		log:      logger.Named("analysis"),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		queue:    make(chan events.AnalysisRequested, cfg.QueueSize),
	}
}

// Wait blocks until background sweeps have returned
func (s *Svc) Wait() { s.inflight.Wait() }
