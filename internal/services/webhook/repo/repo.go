// Package repo persists webhook snapshots and applies them to catalog entries
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
	"stackscout/internal/services/webhook/domain"
)

//go:embed schema.sql
var schema string

// Migrate applies the snapshot DDL, it expects the catalog tables to exist
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

// Repo is the row level contract used by PGStore
type Repo interface {
	InsertSnapshot(ctx context.Context, s domain.Snapshot) error
	// PointApps moves matching entries whose recorded capture is unset or older
	PointApps(ctx context.Context, fullName, snapshotID string, capturedAt time.Time) (int, error)
}

type (
	// PG is a Postgres snapshot repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres snapshot repository
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) InsertSnapshot(ctx context.Context, s domain.Snapshot) error {
	langs, err := json.Marshal(s.Languages)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode languages")
	}
	desc, err := json.Marshal(orEmpty(s.DescriptionTranslations))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode description translations")
	}
	readme, err := json.Marshal(orEmpty(s.ReadmeTranslations))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode readme translations")
	}
	var release []byte
	if s.LatestRelease != nil {
		if release, err = json.Marshal(s.LatestRelease); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "encode latest release")
		}
	}
	proc, err := json.Marshal(s.Processing)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode processing status")
	}

	const sql = `
		INSERT INTO repository_snapshots (
			id, repo_id, repository_full_name, owner,
			stars, forks, contributors, watchers, pull_requests, releases, commit_count,
			topics, languages, license, description_translations, readme_translations,
			latest_release, processing, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	return store.ExecOne(ctx, r.q, sql,
		s.ID, s.RepoID, s.RepositoryFullName, s.Owner,
		s.Stars, s.Forks, s.Contributors, s.Watchers, s.PullRequests, s.Releases, s.CommitCount,
		s.Topics, langs, s.License, desc, readme,
		release, proc, s.CapturedAt,
	)
}

func (r *queries) PointApps(ctx context.Context, fullName, snapshotID string, capturedAt time.Time) (int, error) {
	const sql = `
		UPDATE apps
		SET snapshot_id = $2, snapshot_captured_at = $3
		WHERE (lower(repository_full_name) = lower($1) OR repository_key = lower($1))
		  AND (snapshot_captured_at IS NULL OR snapshot_captured_at < $3)
	`
	tag, err := store.Exec(ctx, r.q, sql, fullName, snapshotID, capturedAt)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
