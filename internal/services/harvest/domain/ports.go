package domain

import (
	"context"

	catalog "stackscout/internal/services/catalog/domain"
)

// RankPort fetches the trending list for a period
type RankPort interface {
	FetchRank(ctx context.Context, period Period) ([]RepositorySummary, error)
}

// IngestPort turns summaries into pending submissions
type IngestPort interface {
	Ingest(ctx context.Context, in []RepositorySummary) ([]catalog.Submission, error)
}

// EnrichPort translates a submission's descriptive text
type EnrichPort interface {
	Enrich(ctx context.Context, s catalog.Submission) catalog.Submission
}

// HarvestPort runs the full pipeline for one period
type HarvestPort interface {
	Harvest(ctx context.Context, period Period) ([]RepositorySummary, error)
}
