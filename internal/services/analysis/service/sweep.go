package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/events"
	ptime "stackscout/internal/platform/time"
	"stackscout/internal/services/analysis/domain"
	catalog "stackscout/internal/services/catalog/domain"
)

const (
	staleReason  = "job timed out"
	releaseGrace = 5 * time.Second
)

// RunSweep walks the catalog once and dispatches one job per entry without one in flight
func (s *Svc) RunSweep(ctx context.Context) (domain.SweepReport, error) {
	release, err := s.begin(ctx)
	if err != nil {
		return domain.SweepReport{}, err
	}
	defer release()
	return s.sweep(ctx)
}

// StartSweep runs a sweep detached from ctx, it fails fast when one is already running
func (s *Svc) StartSweep(ctx context.Context) error {
	release, err := s.begin(ctx)
	if err != nil {
		return err
	}
	bg := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer release()
		if _, err := s.sweep(bg); err != nil {
			s.log.Error().Err(err).Msg("background sweep failed")
		}
	}()
	return nil
}

// Loop reaps and sweeps immediately and then every interval until ctx is done
func (s *Svc) Loop(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return perr.InvalidArgf("sweep interval must be positive")
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if _, err := s.ReapStale(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("reap stale jobs failed")
		}
		if _, err := s.RunSweep(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, domain.ErrSweepInProgress):
				s.log.Info().Msg("sweep already running elsewhere")
			default:
				s.log.Error().Err(err).Msg("sweep failed")
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// ReapStale fails jobs stuck in flight for longer than the job TTL
func (s *Svc) ReapStale(ctx context.Context) (int, error) {
	now := s.now().UTC()
	n, err := s.jobs.ReapStale(ctx, now.Add(-s.cfg.JobTTL), staleReason, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warn().Int("count", n).Dur("ttl", s.cfg.JobTTL).Msg("reaped stale analysis jobs")
	}
	return n, nil
}

// begin claims the in process guard and the optional cross process lease
func (s *Svc) begin(ctx context.Context) (func(), error) {
	if s.catalog == nil {
		return nil, perr.New(perr.ErrorCodeUnavailable, "analysis: no catalog source configured")
	}
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepInProgress
	}
	if s.lease == nil {
		return func() { s.sweeping.Store(false) }, nil
	}
	ok, err := s.lease.Acquire(ctx)
	if err != nil {
		s.sweeping.Store(false)
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "acquire sweep lease")
	}
	if !ok {
		s.sweeping.Store(false)
		return nil, domain.ErrSweepInProgress
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseGrace)
		defer cancel()
		if err := s.lease.Release(rctx); err != nil {
			s.log.Warn().Err(err).Msg("release sweep lease failed")
		}
		s.sweeping.Store(false)
	}, nil
}

func (s *Svc) sweep(ctx context.Context) (domain.SweepReport, error) {
	rep := domain.SweepReport{StartedAt: s.now().UTC()}
	done := func(err error) (domain.SweepReport, error) {
		rep.FinishedAt = s.now().UTC()
		s.log.Info().
			Int("seen", rep.Seen).
			Int("dispatched", rep.Dispatched).
			Int("skipped", rep.Skipped).
			Int("failed", rep.Failed).
			Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
			Err(err).
			Msg("sweep finished")
		return rep, err
	}

	paced := false
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return done(err)
		}
		apps, err := s.catalog.Search(ctx, page, s.cfg.PageSize)
		if err != nil {
			return done(fmt.Errorf("sweep page %d: %w", page, err))
		}
		for _, app := range apps {
			rep.Seen++
			if app.RepositoryURL == "" {
				rep.Skipped++
				continue
			}
			if _, _, err := catalog.SplitGitHub(app.RepositoryURL); err != nil {
				s.log.Info().Err(err).Str("app_id", app.ID).Str("repository_url", app.RepositoryURL).Msg("repository not analyzable, skipping")
				rep.Skipped++
				continue
			}
			if paced {
				if err := s.pacer.Wait(ctx); err != nil {
					return done(err)
				}
				paced = false
			}
			if s.lease != nil {
				ok, err := s.lease.Acquire(ctx)
				if err != nil {
					return done(perr.Wrapf(err, perr.ErrorCodeUnavailable, "renew sweep lease"))
				}
				if !ok {
					return done(domain.ErrSweepInProgress)
				}
			}
			paced = s.dispatch(ctx, app, &rep)
		}
		if len(apps) < s.cfg.PageSize {
			return done(nil)
		}
	}
}

// dispatch creates an in progress job for app and announces it, true when a request went out
func (s *Svc) dispatch(ctx context.Context, app catalog.App, rep *domain.SweepReport) bool {
	now := s.now().UTC()
	job := domain.Job{
		ID:            s.newID(),
		AppID:         app.ID,
		RepositoryURL: app.RepositoryURL,
		SourceKind:    domain.SourceGitHub,
		Status:        domain.JobInProgress,
		CreatedAt:     now,
		StartedAt:     ptime.Ptr(now),
	}
	log := s.log.With().Str("app_id", app.ID).Str("repository_url", app.RepositoryURL).Logger()

	if _, err := s.jobs.CreateIfNoneInFlight(ctx, job); err != nil {
		if errors.Is(err, domain.ErrDuplicateInFlightJob) {
			log.Info().Msg("analysis already in flight, skipping")
			rep.Skipped++
			return false
		}
		log.Error().Err(err).Msg("create analysis job failed")
		rep.Failed++
		return false
	}

	err := s.pub.Publish(ctx, events.AnalysisRequested{
		AppID:      app.ID,
		GitHub:     app.RepositoryURL,
		JobID:      job.ID,
		UserID:     catalog.UserSystem,
		Status:     string(domain.JobInProgress),
		SourceKind: domain.SourceGitHub,
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("publish analysis request failed")
		rep.Failed++
		msg := domain.TrimErr("publish analysis request: " + err.Error())
		if _, ferr := s.jobs.Finish(context.WithoutCancel(ctx), job.ID, domain.JobFailed, msg, s.now().UTC()); ferr != nil {
			log.Error().Err(ferr).Str("job_id", job.ID).Msg("fail undispatched job")
		}
		return false
	}
	rep.Dispatched++
	log.Debug().Str("job_id", job.ID).Msg("analysis dispatched")
	return true
}
