package repo

import (
	"context"
	"fmt"
	"os"
	"time"

	"stackscout/internal/modkit/repokit"
	"stackscout/internal/services/analysis/domain"
)

// PGLease is a row lease in sweep_leases that expires on its own when the holder dies
type PGLease struct {
	q     repokit.Queryer
	name  string
	owner string
	ttl   time.Duration
}

var _ domain.Lease = (*PGLease)(nil)

// NewPGLease builds a lease named name, owner gets the pid appended
func NewPGLease(q repokit.Queryer, name, owner string, ttl time.Duration) *PGLease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PGLease{q: q, name: name, owner: fmt.Sprintf("%s:%d", owner, os.Getpid()), ttl: ttl}
}

// Owner is the value stored in the owner column
func (l *PGLease) Owner() string { return l.owner }

// Acquire claims a free or expired lease, or extends one this owner already holds
func (l *PGLease) Acquire(ctx context.Context) (bool, error) {
	const sql = `
		INSERT INTO sweep_leases (name, owner, claimed_at, expires_at)
		VALUES ($1, $2, now(), now() + ($3)::interval)
		ON CONFLICT (name) DO UPDATE
		SET owner = excluded.owner, claimed_at = excluded.claimed_at, expires_at = excluded.expires_at
		WHERE sweep_leases.owner IS NULL
		   OR sweep_leases.expires_at <= now()
		   OR sweep_leases.owner = excluded.owner
		RETURNING true
	`
	rows, err := l.q.Query(ctx, sql, l.name, l.owner, fmt.Sprintf("%d seconds", int64(l.ttl/time.Second)))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	claimed := rows.Next()
	return claimed, rows.Err()
}

// Release frees the lease when this owner holds it
func (l *PGLease) Release(ctx context.Context) error {
	const sql = `
		UPDATE sweep_leases
		SET owner = NULL, claimed_at = NULL, expires_at = NULL
		WHERE name = $1 AND owner = $2
	`
	_, err := l.q.Exec(ctx, sql, l.name, l.owner)
	return err
}
