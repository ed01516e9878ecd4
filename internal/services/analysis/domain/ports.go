package domain

import (
	"context"
	"time"

	"stackscout/internal/platform/events"
)

// JobStore persists jobs and results, CreateIfNoneInFlight is atomic per app
type JobStore interface {
	// CreateIfNoneInFlight stores j unless the app already has a pending or in_progress job
	// it returns ErrDuplicateInFlightJob in that case
	CreateIfNoneInFlight(ctx context.Context, j Job) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	ListByApp(ctx context.Context, appID string, limit int) ([]Job, error)

	// Finish moves a job to a terminal state, ErrInvalidTransition when the current state forbids it
	Finish(ctx context.Context, id string, to JobStatus, errText string, at time.Time) (Job, error)
	// Complete stores the result and marks the job succeeded in one step
	Complete(ctx context.Context, res Result, at time.Time) (Job, error)
	Result(ctx context.Context, jobID string) (Result, error)

	// ReapStale fails jobs in flight since before cutoff
	ReapStale(ctx context.Context, cutoff time.Time, reason string, at time.Time) (int, error)
}

// Lease is a cross process mutual exclusion for sweeps
type Lease interface {
	// Acquire claims or renews the lease, false means another owner holds it
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// SweepPort runs orchestrator passes
type SweepPort interface {
	RunSweep(ctx context.Context) (SweepReport, error)
	// StartSweep runs a sweep in the background, ErrSweepInProgress when one is running
	StartSweep(ctx context.Context) error
}

// WorkerPort executes analysis requests
type WorkerPort interface {
	Handle(ctx context.Context, req events.AnalysisRequested) error
}

// ReaderPort exposes job reads
type ReaderPort interface {
	Job(ctx context.Context, id string) (JobView, error)
	JobsByApp(ctx context.Context, appID string, limit int) ([]Job, error)
}
