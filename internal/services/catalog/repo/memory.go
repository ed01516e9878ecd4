package repo

import (
	"context"
	"sort"
	"sync"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/catalog/domain"
)

// Memory is an in-process catalog used by tests and single-node runs
// it implements domain.Store directly
type Memory struct {
	mu    sync.Mutex
	apps  []domain.App
	subs  map[string]domain.Submission // by id
	byURL map[string]string            // normalized url to submission id
}

// NewMemory constructs an empty in-memory catalog
func NewMemory(apps ...domain.App) *Memory {
	m := &Memory{subs: map[string]domain.Submission{}, byURL: map[string]string{}}
	m.apps = append(m.apps, apps...)
	return m
}

var _ domain.Store = (*Memory)(nil)

// Submissions returns every stored submission ordered by creation
func (m *Memory) Submissions() []domain.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Submission, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetByID returns one app
func (m *Memory) GetByID(_ context.Context, id string) (domain.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.App{}, perr.NotFoundf("app %s not found", id)
}

// Search pages apps in insertion order
func (m *Memory) Search(_ context.Context, page, limit int) ([]domain.App, error) {
	if page < 1 || limit < 1 {
		return nil, perr.InvalidArgf("page and limit must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	start := (page - 1) * limit
	if start >= len(m.apps) {
		return []domain.App{}, nil
	}
	end := min(start+limit, len(m.apps))
	return append([]domain.App(nil), m.apps[start:end]...), nil
}

// CreateSubmissions inserts the submissions whose url is unknown
func (m *Memory) CreateSubmissions(_ context.Context, subs []domain.Submission) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for _, s := range subs {
		if _, ok := m.byURL[s.RepositoryURL]; ok || m.hasAppURL(s.RepositoryURL) {
			continue
		}
		m.subs[s.ID] = s
		m.byURL[s.RepositoryURL] = s.ID
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) hasAppURL(u string) bool {
	for _, a := range m.apps {
		if a.RepositoryURL == "" {
			continue
		}
		if n, err := domain.NormalizeRepoURL(a.RepositoryURL); err == nil && n == u {
			return true
		}
	}
	return false
}

// UpdateSubmission overwrites the text fields of a stored submission
func (m *Memory) UpdateSubmission(_ context.Context, s domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.subs[s.ID]
	if !ok {
		return perr.NotFoundf("submission %s not found", s.ID)
	}
	cur.Name = s.Name
	cur.Description = s.Description
	cur.LongDescription = s.LongDescription
	cur.Website = s.Website
	cur.IconURL = s.IconURL
	m.subs[s.ID] = cur
	return nil
}
