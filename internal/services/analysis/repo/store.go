package repo

import (
	"context"
	"time"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/analysis/domain"
)

// PGStore implements domain.JobStore over Postgres
type PGStore struct {
	db     repokit.TxRunner
	binder repokit.Binder[Repo]
	repo   Repo
}

var _ domain.JobStore = (*PGStore)(nil)

// NewPGStore constructs a job store, a nil binder means NewPG
func NewPGStore(db repokit.TxRunner, binder repokit.Binder[Repo]) *PGStore {
	if db == nil {
		panic("analysis.PGStore requires a non nil TxRunner")
	}
	if binder == nil {
		binder = NewPG()
	}
	return &PGStore{db: db, binder: binder, repo: binder.Bind(db)}
}

// CreateIfNoneInFlight inserts j unless its app has a job in flight
func (s *PGStore) CreateIfNoneInFlight(ctx context.Context, j domain.Job) (domain.Job, error) {
	ok, err := s.repo.InsertIfNoneInFlight(ctx, j)
	if err != nil {
		return domain.Job{}, perr.FromPostgresf(err, "create analysis job for app %s", j.AppID)
	}
	if !ok {
		return domain.Job{}, domain.ErrDuplicateInFlightJob
	}
	return j, nil
}

// Get returns one job
func (s *PGStore) Get(ctx context.Context, id string) (domain.Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if perr.Is(err, perr.ErrNotFound) {
		return domain.Job{}, perr.NotFoundf("analysis job %s not found", id)
	}
	return j, err
}

// ListByApp returns an app's jobs newest first
func (s *PGStore) ListByApp(ctx context.Context, appID string, limit int) ([]domain.Job, error) {
	return s.repo.ListJobs(ctx, appID, limit)
}

// Finish moves a job to a terminal state
func (s *PGStore) Finish(ctx context.Context, id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, error) {
	var out domain.Job
	err := repokit.InTx(ctx, s.db, s.binder, func(r Repo) error {
		var err error
		out, err = transition(ctx, r, id, to, errText, at)
		return err
	})
	return out, err
}

// Complete stores the result and marks the job succeeded in one transaction
func (s *PGStore) Complete(ctx context.Context, res domain.Result, at time.Time) (domain.Job, error) {
	var out domain.Job
	err := repokit.InTx(ctx, s.db, s.binder, func(r Repo) error {
		j, err := transition(ctx, r, res.JobID, domain.JobSucceeded, "", at)
		if err != nil {
			return err
		}
		if err := r.UpsertResult(ctx, res); err != nil {
			return perr.FromPostgresf(err, "store analysis result %s", res.JobID)
		}
		if err := r.SetAppStack(ctx, res.AppID, res.StackTags); err != nil {
			return perr.FromPostgresf(err, "update app stack %s", res.AppID)
		}
		out = j
		return nil
	})
	return out, err
}

func transition(ctx context.Context, r Repo, id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, error) {
	j, ok, err := r.Transition(ctx, id, to, errText, at)
	if err != nil {
		return domain.Job{}, perr.FromPostgresf(err, "transition job %s", id)
	}
	if ok {
		return j, nil
	}
	cur, err := r.GetJob(ctx, id)
	if perr.Is(err, perr.ErrNotFound) {
		return domain.Job{}, perr.NotFoundf("analysis job %s not found", id)
	}
	if err != nil {
		return domain.Job{}, err
	}
	return cur, perr.Tag(domain.ErrInvalidTransition, perr.Conflictf("job %s is %s, cannot become %s", id, cur.Status, to))
}

// Result returns a job's result
func (s *PGStore) Result(ctx context.Context, jobID string) (domain.Result, error) {
	res, err := s.repo.GetResult(ctx, jobID)
	if perr.Is(err, perr.ErrNotFound) {
		return domain.Result{}, perr.NotFoundf("analysis result %s not found", jobID)
	}
	return res, err
}

// ReapStale fails jobs stuck in flight since before cutoff
func (s *PGStore) ReapStale(ctx context.Context, cutoff time.Time, reason string, at time.Time) (int, error) {
	return s.repo.FailStale(ctx, cutoff, domain.TrimErr(reason), at)
}
