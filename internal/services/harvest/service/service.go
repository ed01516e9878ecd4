// Package service implements rank harvesting, submission ingestion and translation enrichment
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	gh "stackscout/internal/adapters/ingest/github"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/events"
	"stackscout/internal/platform/logger"
	catalog "stackscout/internal/services/catalog/domain"
	"stackscout/internal/services/harvest/domain"
)

// RankSource lists repositories created since a point in time, most starred first
type RankSource interface {
	CreatedSince(ctx context.Context, since time.Time, limit int) ([]gh.Repo, error)
}

// Translator translates plain text into the target language
type Translator interface {
	Translate(ctx context.Context, text string, target language.Tag) (string, error)
}

// Config carries harvest knobs
type Config struct {
	RankLimit         int
	TargetLocale      language.Tag
	Async             bool
	DownstreamTimeout time.Duration
}

// Svc implements the harvest ports
type Svc struct {
	src     RankSource
	tr      Translator
	catalog catalog.Store
	pub     events.Publisher
	cfg     Config
	log     *logger.Logger

	now   func() time.Time
	newID func() string

	inflight sync.WaitGroup
}

var (
	_ domain.RankPort    = (*Svc)(nil)
	_ domain.IngestPort  = (*Svc)(nil)
	_ domain.EnrichPort  = (*Svc)(nil)
	_ domain.HarvestPort = (*Svc)(nil)
)

// New constructs the harvest service
func New(src RankSource, tr Translator, store catalog.Store, pub events.Publisher, cfg Config) *Svc {
	if src == nil || store == nil || pub == nil {
		panic("harvest.Service requires a rank source, a catalog store and a publisher")
	}
	if cfg.RankLimit <= 0 {
		cfg.RankLimit = 25
	}
	if cfg.TargetLocale == language.Und {
		cfg.TargetLocale = language.SimplifiedChinese
	}
	if cfg.DownstreamTimeout <= 0 {
		cfg.DownstreamTimeout = 2 * time.Minute
	}
	return &Svc{
		src:     src,
		tr:      tr,
		catalog: store,
		pub:     pub,
		cfg:     cfg,
		log:     logger.Named("harvest"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// FetchRank returns the normalized trending list for the period
func (s *Svc) FetchRank(ctx context.Context, period domain.Period) ([]domain.RepositorySummary, error) {
	p, err := domain.ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	repos, err := s.src.CreatedSince(ctx, p.Since(s.now()), s.cfg.RankLimit)
	if err != nil {
		return nil, perr.Tag(domain.ErrUpstreamUnavailable, err)
	}
	out := make([]domain.RepositorySummary, 0, len(repos))
	for _, r := range repos {
		out = append(out, toSummary(r))
	}
	return out, nil
}

func toSummary(r gh.Repo) domain.RepositorySummary {
	u := r.HTMLURL
	if u == "" && r.FullName != "" {
		u = "https://github.com/" + r.FullName
	}
	return domain.RepositorySummary{
		Name:           r.Name,
		Description:    r.Description,
		HomepageURL:    r.Homepage,
		URL:            u,
		OwnerAvatarURL: r.Owner.AvatarURL,
	}
}

// Ingest creates pending submissions for summaries whose repository is not yet known
// re-ingesting a known url is a no-op, only newly created rows are returned
func (s *Svc) Ingest(ctx context.Context, in []domain.RepositorySummary) ([]catalog.Submission, error) {
	seen := make(map[string]struct{}, len(in))
	batch := make([]catalog.Submission, 0, len(in))
	now := s.now().UTC()

	for _, sum := range in {
		if strings.TrimSpace(sum.URL) == "" {
			s.log.Warn().Str("name", sum.Name).Msg("skipping summary without url")
			continue
		}
		u, err := catalog.NormalizeRepoURL(sum.URL)
		if err != nil {
			s.log.Warn().Err(err).Str("url", sum.URL).Msg("skipping summary with bad url")
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		batch = append(batch, catalog.Submission{
			ID:              s.newID(),
			UserID:          catalog.UserSystem,
			Status:          catalog.SubmissionPending,
			Name:            sum.Name,
			Description:     sum.Description,
			LongDescription: sum.Description,
			Type:            catalog.TypeApplication,
			Website:         sum.HomepageURL,
			RepositoryURL:   u,
			IconURL:         sum.OwnerAvatarURL,
			CreatedAt:       now,
		})
	}
	if len(batch) == 0 {
		return []catalog.Submission{}, nil
	}

	created, err := s.catalog.CreateSubmissions(ctx, batch)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = []catalog.Submission{}
	}
	s.log.Info().Int("candidates", len(batch)).Int("created", len(created)).Msg("ingested summaries")
	return created, nil
}

// Enrich translates the description once and persists it
// any failure leaves the submission unchanged
func (s *Svc) Enrich(ctx context.Context, sub catalog.Submission) catalog.Submission {
	if strings.TrimSpace(sub.Description) == "" || s.tr == nil {
		return sub
	}
	text, err := s.tr.Translate(ctx, sub.Description, s.cfg.TargetLocale)
	if err != nil {
		err = perr.Tag(domain.ErrTranslationFailed, err)
		s.log.Warn().Err(err).Str("submission_id", sub.ID).Msg("translation skipped")
		return sub
	}

	out := sub
	out.Description = text
	out.LongDescription = text
	if err := s.catalog.UpdateSubmission(ctx, out); err != nil {
		s.log.Warn().Err(err).Str("submission_id", sub.ID).Msg("persist translation failed")
		return sub
	}
	return out
}

// Harvest fetches the rank and, when anything came back, ingests, enriches and announces it
// downstream failures are logged and never change the returned list
func (s *Svc) Harvest(ctx context.Context, period domain.Period) ([]domain.RepositorySummary, error) {
	p, err := domain.ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	list, err := s.FetchRank(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	if !s.cfg.Async {
		dctx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
		defer cancel()
		s.downstream(dctx, p, list)
		return list, nil
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DownstreamTimeout)
		defer cancel()
		s.downstream(dctx, p, list)
	}()
	return list, nil
}

// Wait blocks until detached downstream runs finish
func (s *Svc) Wait() { s.inflight.Wait() }

func (s *Svc) downstream(ctx context.Context, p domain.Period, list []domain.RepositorySummary) {
	created, err := s.Ingest(ctx, list)
	if err != nil {
		s.log.Error().Err(err).Str("period", string(p)).Msg("ingest failed")
		return
	}
	if len(created) == 0 {
		s.log.Debug().Str("period", string(p)).Msg("nothing new to announce")
		return
	}

	wire := make([]events.Submission, 0, len(created))
	for _, sub := range created {
		wire = append(wire, toWire(s.Enrich(ctx, sub)))
	}
	evt := events.SubmissionBatchCreated{Period: string(p), Submissions: wire}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Error().Err(err).Str("event", evt.EventName()).Msg("publish submission batch failed")
	}
}

func toWire(s catalog.Submission) events.Submission {
	return events.Submission{
		ID:              s.ID,
		UserID:          s.UserID,
		Status:          string(s.Status),
		Name:            s.Name,
		Description:     s.Description,
		LongDescription: s.LongDescription,
		Type:            string(s.Type),
		Website:         s.Website,
		RepositoryURL:   s.RepositoryURL,
		IconURL:         s.IconURL,
	}
}
