// Package repo provides the catalog repository implementations
package repo

import (
	"context"
	_ "embed"
	"strings"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/store"
	"stackscout/internal/services/catalog/domain"
)

//go:embed schema.sql
var schema string

// Repo defines the catalog repository contract
type Repo interface {
	GetApp(ctx context.Context, id string) (domain.App, error)
	ListApps(ctx context.Context, offset, limit int) ([]domain.App, error)

	// InsertSubmission creates s unless its url is already a submission or an app
	// created is false when nothing was inserted
	InsertSubmission(ctx context.Context, s domain.Submission) (created bool, err error)
	UpdateSubmissionText(ctx context.Context, s domain.Submission) error
}

type (
	// PG is a Postgres catalog repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres catalog repository
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Migrate applies the catalog DDL, every statement is idempotent
func Migrate(ctx context.Context, q repokit.Queryer) error {
	return execScript(ctx, q, schema)
}

func execScript(ctx context.Context, q repokit.Queryer, script string) error {
	for stmt := range strings.SplitSeq(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const appCols = `id, name, repository_url, repository_full_name, COALESCE(snapshot_id, ''), snapshot_captured_at, stack_tags`

func scanApp(r store.Row) (domain.App, error) {
	var a domain.App
	err := r.Scan(&a.ID, &a.Name, &a.RepositoryURL, &a.RepositoryFullName, &a.SnapshotID, &a.SnapshotCapturedAt, &a.StackTags)
	if a.StackTags == nil {
		a.StackTags = []string{}
	}
	return a, err
}

// GetApp returns one app or perr NotFound
func (r *queries) GetApp(ctx context.Context, id string) (domain.App, error) {
	return store.One(ctx, r.q, scanApp, `SELECT `+appCols+` FROM apps WHERE id = $1`, id)
}

// ListApps pages apps in creation order
func (r *queries) ListApps(ctx context.Context, offset, limit int) ([]domain.App, error) {
	const sql = `
		SELECT ` + appCols + `
		FROM apps
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	return store.Many(ctx, r.q, scanApp, sql, limit, offset)
}

// InsertSubmission relies on the unique url constraint so concurrent inserts of one url create one row
func (r *queries) InsertSubmission(ctx context.Context, s domain.Submission) (bool, error) {
	const sql = `
		INSERT INTO submissions (
			id, user_id, status, name, description, long_description, type,
			website, repository_url, docs_url, favicon_asset_id, logo_asset_id, icon_url, created_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		WHERE NOT EXISTS (SELECT 1 FROM apps WHERE repository_url_norm = $9)
		ON CONFLICT (repository_url) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, sql,
		s.ID, s.UserID, string(s.Status), s.Name, s.Description, s.LongDescription, string(s.Type),
		s.Website, s.RepositoryURL, s.DocsURL, s.FaviconAssetID, s.LogoAssetID, s.IconURL, s.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateSubmissionText overwrites description fields
func (r *queries) UpdateSubmissionText(ctx context.Context, s domain.Submission) error {
	const sql = `
		UPDATE submissions
		SET name = $2, description = $3, long_description = $4, website = $5, icon_url = $6
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, sql, s.ID, s.Name, s.Description, s.LongDescription, s.Website, s.IconURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("submission %s not found", s.ID)
	}
	return nil
}
