package service

import (
	"context"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/analysis/domain"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 100
)

// Job returns a job with its result attached once it succeeded
func (s *Svc) Job(ctx context.Context, id string) (domain.JobView, error) {
	if id == "" {
		return domain.JobView{}, perr.InvalidArgf("job id is required")
	}
	j, err := s.jobs.Get(ctx, id)
	if err != nil {
		return domain.JobView{}, err
	}
	v := domain.JobView{Job: j}
	if j.Status != domain.JobSucceeded {
		return v, nil
	}
	res, err := s.jobs.Result(ctx, id)
	switch {
	case err == nil:
		v.Result = &res
	case perr.IsCode(err, perr.ErrorCodeNotFound):
	default:
		return domain.JobView{}, err
	}
	return v, nil
}

// JobsByApp lists the newest jobs of an app, limit defaults to 20 and caps at 100
func (s *Svc) JobsByApp(ctx context.Context, appID string, limit int) ([]domain.Job, error) {
	if appID == "" {
		return nil, perr.InvalidArgf("app id is required")
	}
	if limit <= 0 {
		limit = defaultJobsLimit
	}
	limit = min(limit, maxJobsLimit)
	return s.jobs.ListByApp(ctx, appID, limit)
}
