package domain

import "context"

// Store is the catalog contract the pipeline depends on
type Store interface {
	// GetByID returns one catalog entry or perr NotFound
	GetByID(ctx context.Context, id string) (App, error)
	// Search pages catalog entries that reference a repository, page starts at 1
	Search(ctx context.Context, page, limit int) ([]App, error)
	// CreateSubmissions inserts new submissions and returns only the ones created
	CreateSubmissions(ctx context.Context, subs []Submission) ([]Submission, error)
	// UpdateSubmission overwrites the mutable text fields of a submission
	UpdateSubmission(ctx context.Context, s Submission) error
}
