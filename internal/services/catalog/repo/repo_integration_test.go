//go:build integration_pg

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stackscout/internal/platform/store"
	"stackscout/internal/platform/testkit"
	"stackscout/internal/services/catalog/domain"
)

func TestPG_Integration_InsertSubmissionMatchesNormalizedAppURL(t *testing.T) {
	dsn := testkit.StartPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4}}, store.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	for range 2 {
		if err := Migrate(ctx, st.PG); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	if _, err := st.PG.Exec(ctx, `INSERT INTO apps (id, name, repository_url) VALUES
		('a1', 'Next', 'https://github.com/Vercel/Next.js.git'),
		('a2', 'Empty', '')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var norm, key string
	if err := st.PG.QueryRow(ctx, `SELECT repository_url_norm, repository_key FROM apps WHERE id = 'a1'`).Scan(&norm, &key); err != nil {
		t.Fatal(err)
	}
	if norm != "https://github.com/vercel/next.js" || key != "vercel/next.js" {
		t.Fatalf("generated columns = %q, %q", norm, key)
	}

	r := NewPG().Bind(st.PG)
	known, _ := domain.NormalizeRepoURL("https://github.com/Vercel/Next.js.git")
	created, err := r.InsertSubmission(ctx, domain.Submission{
		ID: "s1", UserID: domain.UserSystem, Status: domain.SubmissionPending, Name: "Next",
		Type: domain.TypeApplication, RepositoryURL: known, CreatedAt: time.Now().UTC(),
	})
	if err != nil || created {
		t.Fatalf("known app url: created=%v err=%v", created, err)
	}

	fresh, _ := domain.NormalizeRepoURL("https://github.com/acme/widget")
	created, err = r.InsertSubmission(ctx, domain.Submission{
		ID: "s2", UserID: domain.UserSystem, Status: domain.SubmissionPending, Name: "Widget",
		Type: domain.TypeApplication, RepositoryURL: fresh, CreatedAt: time.Now().UTC(),
	})
	if err != nil || !created {
		t.Fatalf("fresh url: created=%v err=%v", created, err)
	}
}
