package repo

import (
	"context"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/webhook/domain"
)

// PGStore implements domain.SnapshotStore over Postgres
type PGStore struct {
	db     repokit.TxRunner
	binder repokit.Binder[Repo]
}

var _ domain.SnapshotStore = (*PGStore)(nil)

// NewPGStore constructs a snapshot store, a nil binder means NewPG
func NewPGStore(db repokit.TxRunner, binder repokit.Binder[Repo]) *PGStore {
	if db == nil {
		panic("webhook.PGStore requires a non nil TxRunner")
	}
	if binder == nil {
		binder = NewPG()
	}
	return &PGStore{db: db, binder: binder}
}

// Apply inserts the snapshot and repoints newer-than-recorded entries in one transaction
func (s *PGStore) Apply(ctx context.Context, snap domain.Snapshot) (int, error) {
	var updated int
	err := repokit.InTx(ctx, s.db, s.binder, func(r Repo) error {
		if err := r.InsertSnapshot(ctx, snap); err != nil {
			return perr.FromPostgresf(err, "store snapshot for %s", snap.RepositoryFullName)
		}
		n, err := r.PointApps(ctx, snap.RepositoryFullName, snap.ID, snap.CapturedAt)
		if err != nil {
			return perr.FromPostgresf(err, "apply snapshot to %s", snap.RepositoryFullName)
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
