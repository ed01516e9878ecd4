// Package service implements the catalog store over Postgres
package service

import (
	"context"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/catalog/domain"
	"stackscout/internal/services/catalog/repo"
)

// Svc implements domain.Store
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

var _ domain.Store = (*Svc)(nil)

// New constructs a catalog service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("catalog.Service requires a non nil TxRunner")
	}
	if binder == nil {
		binder = repo.NewPG()
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// GetByID returns one catalog entry
func (s *Svc) GetByID(ctx context.Context, id string) (domain.App, error) {
	a, err := s.Repo.GetApp(ctx, id)
	if perr.Is(err, perr.ErrNotFound) {
		return domain.App{}, perr.NotFoundf("app %s not found", id)
	}
	return a, err
}

// Search pages catalog entries, page starts at 1
func (s *Svc) Search(ctx context.Context, page, limit int) ([]domain.App, error) {
	if page < 1 || limit < 1 {
		return nil, perr.InvalidArgf("page and limit must be positive")
	}
	return s.Repo.ListApps(ctx, (page-1)*limit, limit)
}

// CreateSubmissions inserts in one transaction and returns the rows actually created
func (s *Svc) CreateSubmissions(ctx context.Context, subs []domain.Submission) ([]domain.Submission, error) {
	var out []domain.Submission
	err := repokit.InTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		out = out[:0]
		for _, sub := range subs {
			created, err := r.InsertSubmission(ctx, sub)
			if err != nil {
				return perr.FromPostgresf(err, "insert submission %s", sub.RepositoryURL)
			}
			if created {
				out = append(out, sub)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSubmission persists enriched text
func (s *Svc) UpdateSubmission(ctx context.Context, sub domain.Submission) error {
	return s.Repo.UpdateSubmissionText(ctx, sub)
}
