package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	perr "stackscout/internal/platform/errors"
	ptime "stackscout/internal/platform/time"
	"stackscout/internal/services/analysis/domain"
)

// Memory is an in-process job store with the same contract as PGStore
type Memory struct {
	mu      sync.Mutex
	jobs    map[string]domain.Job
	results map[string]domain.Result
}

var _ domain.JobStore = (*Memory)(nil)

// NewMemory constructs an empty store
func NewMemory() *Memory {
	return &Memory{jobs: map[string]domain.Job{}, results: map[string]domain.Result{}}
}

// CreateIfNoneInFlight checks and inserts under one lock
func (m *Memory) CreateIfNoneInFlight(_ context.Context, j domain.Job) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.jobs {
		if cur.AppID == j.AppID && cur.Status.InFlight() {
			return domain.Job{}, domain.ErrDuplicateInFlightJob
		}
	}
	if _, ok := m.jobs[j.ID]; ok {
		return domain.Job{}, perr.DuplicateKeyf("analysis job %s exists", j.ID)
	}
	m.jobs[j.ID] = j
	return j, nil
}

// Get returns one job
func (m *Memory) Get(_ context.Context, id string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, perr.NotFoundf("analysis job %s not found", id)
	}
	return j, nil
}

// ListByApp returns an app's jobs newest first
func (m *Memory) ListByApp(_ context.Context, appID string, limit int) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Job{}
	for _, j := range m.jobs {
		if j.AppID == appID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Finish moves a job to a terminal state
func (m *Memory) Finish(_ context.Context, id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(id, to, errText, at)
}

// Complete stores the result and marks the job succeeded
func (m *Memory) Complete(_ context.Context, res domain.Result, at time.Time) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.transitionLocked(res.JobID, domain.JobSucceeded, "", at)
	if err != nil {
		return j, err
	}
	m.results[res.JobID] = res
	return j, nil
}

func (m *Memory) transitionLocked(id string, to domain.JobStatus, errText string, at time.Time) (domain.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, perr.NotFoundf("analysis job %s not found", id)
	}
	if !domain.CanTransition(j.Status, to) {
		return j, perr.Tag(domain.ErrInvalidTransition, perr.Conflictf("job %s is %s, cannot become %s", id, j.Status, to))
	}
	j.Status = to
	j.Error = errText
	j.FinishedAt = ptime.Ptr(at)
	m.jobs[id] = j
	return j, nil
}

// Result returns a job's result
func (m *Memory) Result(_ context.Context, jobID string) (domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[jobID]
	if !ok {
		return domain.Result{}, perr.NotFoundf("analysis result %s not found", jobID)
	}
	return r, nil
}

// ReapStale fails jobs in flight since before cutoff
func (m *Memory) ReapStale(_ context.Context, cutoff time.Time, reason string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, j := range m.jobs {
		if !j.Status.InFlight() {
			continue
		}
		since := j.CreatedAt
		if j.StartedAt != nil {
			since = *j.StartedAt
		}
		if since.Before(cutoff) {
			j.Status = domain.JobFailed
			j.Error = domain.TrimErr(reason)
			j.FinishedAt = ptime.Ptr(at)
			m.jobs[id] = j
			n++
		}
	}
	return n, nil
}
