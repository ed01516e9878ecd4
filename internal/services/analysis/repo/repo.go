// Package repo provides the analysis job store implementations
package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/store"
	"stackscout/internal/services/analysis/domain"
)

//go:embed schema.sql
var schema string

// Migrate applies the analysis DDL, every statement is idempotent
func Migrate(ctx context.Context, q repokit.Queryer) error {
	for stmt := range strings.SplitSeq(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Repo is the row level contract, PGStore composes it into domain.JobStore
type Repo interface {
	InsertIfNoneInFlight(ctx context.Context, j domain.Job) (bool, error)
	GetJob(ctx context.Context, id string) (domain.Job, error)
	ListJobs(ctx context.Context, appID string, limit int) ([]domain.Job, error)
	Transition(ctx context.Context, id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, bool, error)
	UpsertResult(ctx context.Context, r domain.Result) error
	GetResult(ctx context.Context, jobID string) (domain.Result, error)
	SetAppStack(ctx context.Context, appID string, tags []string) error
	FailStale(ctx context.Context, cutoff time.Time, reason string, at time.Time) (int, error)
}

type (
	// PG is a Postgres analysis repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres analysis repository
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const jobCols = `id, app_id, repository_url, source_kind, status, created_at, started_at, finished_at, error`

func scanJob(r store.Row) (domain.Job, error) {
	var j domain.Job
	var status string
	err := r.Scan(&j.ID, &j.AppID, &j.RepositoryURL, &j.SourceKind, &status, &j.CreatedAt, &j.StartedAt, &j.FinishedAt, &j.Error)
	j.Status = domain.JobStatus(status)
	return j, err
}

// InsertIfNoneInFlight leans on the partial unique index so racing inserts create at most one row
func (r *queries) InsertIfNoneInFlight(ctx context.Context, j domain.Job) (bool, error) {
	const sql = `
		INSERT INTO analysis_jobs (id, app_id, repository_url, source_kind, status, created_at, started_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM analysis_jobs
			WHERE app_id = $2 AND status IN ('pending', 'in_progress')
		)
		ON CONFLICT DO NOTHING
		RETURNING true
	`
	rows, err := r.q.Query(ctx, sql, j.ID, j.AppID, j.RepositoryURL, j.SourceKind, string(j.Status), j.CreatedAt, j.StartedAt)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	created := rows.Next()
	return created, rows.Err()
}

// GetJob returns one job or perr.ErrNotFound
func (r *queries) GetJob(ctx context.Context, id string) (domain.Job, error) {
	return store.One(ctx, r.q, scanJob, `SELECT `+jobCols+` FROM analysis_jobs WHERE id = $1`, id)
}

// ListJobs returns an app's jobs newest first
func (r *queries) ListJobs(ctx context.Context, appID string, limit int) ([]domain.Job, error) {
	const sql = `
		SELECT ` + jobCols + `
		FROM analysis_jobs
		WHERE app_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return store.Many(ctx, r.q, scanJob, sql, appID, limit)
}

// Transition moves a job to `to` when its current status allows it
// ok is false when no row matched
func (r *queries) Transition(ctx context.Context, id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, bool, error) {
	const sql = `
		UPDATE analysis_jobs
		SET status = $2, error = $3, finished_at = $4
		WHERE id = $1 AND status = ANY($5)
		RETURNING ` + jobCols
	from := make([]string, 0, 2)
	for _, s := range domain.AllowedFrom(to) {
		from = append(from, string(s))
	}
	j, err := store.One(ctx, r.q, scanJob, sql, id, string(to), errText, at, from)
	if perr.Is(err, perr.ErrNotFound) {
		return domain.Job{}, false, nil
	}
	return j, err == nil, err
}

// UpsertResult stores the latest result of a job
func (r *queries) UpsertResult(ctx context.Context, res domain.Result) error {
	meta, err := json.Marshal(res.Repository)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode repository meta")
	}
	const sql = `
		INSERT INTO analysis_results (job_id, app_id, stack_tags, repository, readme, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO UPDATE
		SET stack_tags = excluded.stack_tags,
		    repository = excluded.repository,
		    readme     = excluded.readme
	`
	_, err = r.q.Exec(ctx, sql, res.JobID, res.AppID, res.StackTags, meta, res.Readme, res.CreatedAt)
	return err
}

// GetResult returns a job's result or perr.ErrNotFound
func (r *queries) GetResult(ctx context.Context, jobID string) (domain.Result, error) {
	const sql = `
		SELECT job_id, app_id, stack_tags, repository, readme, created_at
		FROM analysis_results WHERE job_id = $1
	`
	return store.One(ctx, r.q, func(row store.Row) (domain.Result, error) {
		var res domain.Result
		var meta []byte
		if err := row.Scan(&res.JobID, &res.AppID, &res.StackTags, &meta, &res.Readme, &res.CreatedAt); err != nil {
			return res, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &res.Repository); err != nil {
				return res, perr.Wrapf(err, perr.ErrorCodeJSON, "decode repository meta")
			}
		}
		return res, nil
	}, sql, jobID)
}

// SetAppStack copies the analyzed stack onto the catalog entry
func (r *queries) SetAppStack(ctx context.Context, appID string, tags []string) error {
	_, err := r.q.Exec(ctx, `UPDATE apps SET stack_tags = $2 WHERE id = $1`, appID, tags)
	return err
}

// FailStale fails every in flight job that started before cutoff
func (r *queries) FailStale(ctx context.Context, cutoff time.Time, reason string, at time.Time) (int, error) {
	const sql = `
		UPDATE analysis_jobs
		SET status = 'failed', error = $2, finished_at = $3
		WHERE status IN ('pending', 'in_progress')
		  AND COALESCE(started_at, created_at) < $1
	`
	tag, err := r.q.Exec(ctx, sql, cutoff, reason, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
