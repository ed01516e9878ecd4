package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/events"
	"stackscout/internal/services/analysis/domain"
	catalog "stackscout/internal/services/catalog/domain"
)

// Handle executes one analysis request and records its outcome
// the job ends succeeded or failed and the matching event is published either way
func (s *Svc) Handle(ctx context.Context, req events.AnalysisRequested) error {
	if req.JobID == "" || req.AppID == "" {
		return perr.InvalidArgf("analysis request needs a job id and an app id")
	}
	log := s.log.With().Str("job_id", req.JobID).Str("app_id", req.AppID).Logger()
	bg := context.WithoutCancel(ctx)

	res, err := s.execute(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("repository_url", req.GitHub).Msg("analysis failed")
		s.fail(bg, req, err)
		return err
	}

	if _, err := s.jobs.Complete(bg, res, s.now().UTC()); err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			log.Error().Err(err).Msg("persist analysis result failed")
			s.fail(bg, req, fmt.Errorf("persist result: %w", err))
			return err
		}
		log.Warn().Err(err).Msg("job already terminal, result not stored")
	}

	if err := s.pub.Publish(bg, events.AnalysisFinished{
		AppID:      res.AppID,
		JobID:      res.JobID,
		Stack:      res.StackTags,
		Repository: res.Repository,
		Readme:     res.Readme,
	}); err != nil {
		s.logPublishErr(err, req.JobID, events.NameAnalysisFinished)
	}
	log.Info().Strs("stack", res.StackTags).Msg("analysis succeeded")
	return nil
}

func (s *Svc) fail(ctx context.Context, req events.AnalysisRequested, cause error) {
	msg := domain.TrimErr(cause.Error())
	if _, err := s.jobs.Finish(ctx, req.JobID, domain.JobFailed, msg, s.now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("job_id", req.JobID).Msg("mark job failed")
	}
	if err := s.pub.Publish(ctx, events.AnalysisFailed{AppID: req.AppID, JobID: req.JobID, Error: msg}); err != nil {
		s.logPublishErr(err, req.JobID, events.NameAnalysisFailed)
	}
}

// logPublishErr keeps outcome events nobody listens to at debug, the job row already holds the outcome
func (s *Svc) logPublishErr(err error, jobID, name string) {
	lvl := s.log.Error()
	if errors.Is(err, events.ErrNoReceiver) {
		lvl = s.log.Debug()
	}
	lvl.Err(err).Str("job_id", jobID).Str("event", name).Msg("publish analysis outcome failed")
}

func (s *Svc) execute(ctx context.Context, req events.AnalysisRequested) (domain.Result, error) {
	if s.cloner == nil || s.analyzer == nil || s.meta == nil {
		return domain.Result{}, perr.New(perr.ErrorCodeUnavailable, "analysis: worker is not configured")
	}
	owner, name, err := catalog.SplitGitHub(req.GitHub)
	if err != nil {
		return domain.Result{}, err
	}
	repoURL := catalog.GitHubURL(owner, name)

	dir, err := s.prepareWorkdir(owner, name, req.JobID)
	if err != nil {
		return domain.Result{}, err
	}
	defer s.cleanup(dir)

	cctx, cancel := withBudget(ctx, s.cfg.Budgets.Clone)
	err = s.cloner.Clone(cctx, repoURL, dir)
	cancel()
	if err != nil {
		return domain.Result{}, perr.Tag(domain.ErrCloneFailed, err)
	}

	var (
		groups [][]string
		readme string
		meta   domain.RepositoryMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		actx, cancel := withBudget(gctx, s.cfg.Budgets.Analyze)
		defer cancel()
		tags, err := s.analyzer.Analyze(actx, dir)
		if err != nil {
			return perr.Tag(domain.ErrAnalyzerFailed, err)
		}
		groups = tags
		return nil
	})
	g.Go(func() error {
		readme = ReadReadme(dir, s.cfg.TargetLocale)
		return nil
	})
	g.Go(func() error {
		mctx, cancel := withBudget(gctx, s.cfg.Budgets.Metadata)
		defer cancel()
		m, err := s.meta.QueryRepository(mctx, repoURL)
		if err != nil {
			return fmt.Errorf("repository metadata: %w", err)
		}
		meta = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Result{}, err
	}

	return domain.Result{
		AppID:      req.AppID,
		JobID:      req.JobID,
		StackTags:  domain.UnionTags(groups),
		Repository: meta,
		Readme:     readme,
		CreatedAt:  s.now().UTC(),
	}, nil
}

// Enqueue hands a request to the worker pool, it blocks while the queue is full
func (s *Svc) Enqueue(ctx context.Context, req events.AnalysisRequested) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- req:
		return nil
	}
}

// Subscribe routes analysis requests published on bus into the worker pool
func (s *Svc) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(events.NameAnalysisRequested, func(ctx context.Context, e events.Event) error {
		req, ok := e.(events.AnalysisRequested)
		if !ok {
			return perr.InvalidArgf("unexpected event %T", e)
		}
		return s.Enqueue(ctx, req)
	})
}

// SubscribeInline handles analysis requests inside Publish, one at a time
// job failures are recorded on the job and never fail the publisher
func (s *Svc) SubscribeInline(bus *events.Bus) func() {
	return bus.Subscribe(events.NameAnalysisRequested, func(ctx context.Context, e events.Event) error {
		req, ok := e.(events.AnalysisRequested)
		if !ok {
			return perr.InvalidArgf("unexpected event %T", e)
		}
		if err := s.Handle(ctx, req); err != nil {
			s.log.Debug().Err(err).Str("job_id", req.JobID).Msg("inline analysis failed")
		}
		return nil
	})
}

// Run drains the queue with at most Concurrency jobs in parallel until ctx is done
func (s *Svc) Run(ctx context.Context) error {
	sem := make(chan struct{}, max(1, s.cfg.Concurrency))
	var wg sync.WaitGroup
	defer wg.Wait()

	s.log.Info().Int("concurrency", cap(sem)).Msg("analysis worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.queue:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				s.log.Warn().Str("job_id", req.JobID).Msg("shutdown before job start, reaper will fail it")
				return nil
			}
			wg.Add(1)
			go func(req events.AnalysisRequested) {
				defer wg.Done()
				defer func() { <-sem }()
				_ = s.Handle(ctx, req)
			}(req)
		}
	}
}
