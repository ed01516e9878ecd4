package domain

import "context"

// SnapshotStore persists snapshots and points catalog entries at the newest one
type SnapshotStore interface {
	// Apply stores s and returns how many entries moved to it
	// an entry only moves when its recorded capture time is unset or older
	Apply(ctx context.Context, s Snapshot) (int, error)
}

// HistorySink receives an append-only copy of accepted snapshots
type HistorySink interface {
	Append(ctx context.Context, s Snapshot) error
}

// ReceiverPort verifies and applies one webhook delivery
type ReceiverPort interface {
	Receive(ctx context.Context, signature, timestamp string, body []byte) (ApplyResult, error)
}
