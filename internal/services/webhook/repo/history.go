package repo

import (
	"context"
	"encoding/json"

	"stackscout/internal/platform/store"
	"stackscout/internal/services/webhook/domain"
)

// HistoryTable is the ClickHouse table receiving accepted snapshots
const HistoryTable = "repository_snapshot_history"

const historyDDL = `
	CREATE TABLE IF NOT EXISTS repository_snapshot_history (
		snapshot_id          String,
		repo_id              Int64,
		repository_full_name LowCardinality(String),
		stars                UInt32,
		forks                UInt32,
		contributors         UInt32,
		watchers             UInt32,
		pull_requests        UInt32,
		releases             UInt32,
		commit_count         UInt32,
		topics               Array(String),
		languages            String,
		license              String,
		captured_at          DateTime64(3, 'UTC')
	)
	ENGINE = MergeTree
	ORDER BY (repository_full_name, captured_at)
`

// CHHistory appends snapshots to ClickHouse
type CHHistory struct {
	ch store.Clickhouse
}

var _ domain.HistorySink = (*CHHistory)(nil)

// NewCHHistory wraps a ClickHouse seam
func NewCHHistory(ch store.Clickhouse) *CHHistory { return &CHHistory{ch: ch} }

// MigrateHistory creates the history table
func MigrateHistory(ctx context.Context, ch store.Clickhouse) error {
	return ch.Exec(ctx, historyDDL)
}

// Append writes one history row in column order
func (h *CHHistory) Append(ctx context.Context, s domain.Snapshot) error {
	langs, err := json.Marshal(s.Languages)
	if err != nil {
		return err
	}
	return h.ch.Insert(ctx, HistoryTable, [][]any{historyRow(s, string(langs))})
}

func historyRow(s domain.Snapshot, langs string) []any {
	topics := s.Topics
	if topics == nil {
		topics = []string{}
	}
	return []any{
		s.ID,
		s.RepoID,
		s.RepositoryFullName,
		uint32(max(s.Stars, 0)),
		uint32(max(s.Forks, 0)),
		uint32(max(s.Contributors, 0)),
		uint32(max(s.Watchers, 0)),
		uint32(max(s.PullRequests, 0)),
		uint32(max(s.Releases, 0)),
		uint32(max(s.CommitCount, 0)),
		topics,
		langs,
		s.License,
		s.CapturedAt,
	}
}
