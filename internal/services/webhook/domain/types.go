// Package domain holds repository snapshot types delivered by the metadata webhook
package domain

import (
	"strings"
	"time"

	perr "stackscout/internal/platform/errors"
)

// Webhook rejection and parsing failures
var (
	ErrInvalidSignature = perr.New(perr.ErrorCodeUnauthorized, "invalid webhook signature")
	ErrStaleTimestamp   = perr.New(perr.ErrorCodeUnauthorized, "webhook timestamp outside tolerance")
	ErrMalformedPayload = perr.New(perr.ErrorCodeJSON, "malformed webhook payload")
)

// EventRepoUpdated is the event type sent for a fresh capture
const EventRepoUpdated = "repo_updated"

// ProcessingStatus tracks which enrichment stages the sender already completed
type ProcessingStatus struct {
	IconProcessed          bool `json:"icon_processed"`
	DescriptionTranslated  bool `json:"description_translated"`
	ReadmeTranslated       bool `json:"readme_translated"`
	ImageProcessed         bool `json:"image_processed"`
	ReleaseNotesTranslated bool `json:"release_notes_translated"`
}

// Release is the newest published release of a repository
type Release struct {
	TagName          string            `json:"tag_name"`
	Name             string            `json:"name,omitempty"`
	URL              string            `json:"url,omitempty"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	NotesTranslation map[string]string `json:"notes_translations,omitempty"`
}

// Snapshot is one immutable capture of a repository's statistics
type Snapshot struct {
	ID                      string            `json:"id"`
	RepoID                  int64             `json:"repoId"`
	RepositoryFullName      string            `json:"repositoryFullName"`
	Owner                   string            `json:"owner"`
	Stars                   int               `json:"stars"`
	Forks                   int               `json:"forks"`
	Contributors            int               `json:"contributors"`
	Watchers                int               `json:"watchers"`
	PullRequests            int               `json:"pullRequests"`
	Releases                int               `json:"releases"`
	CommitCount             int               `json:"commitCount"`
	Topics                  []string          `json:"topics"`
	Languages               map[string]int64  `json:"languages"`
	License                 string            `json:"license,omitempty"`
	CapturedAt              time.Time         `json:"capturedAt"`
	DescriptionTranslations map[string]string `json:"descriptionTranslations,omitempty"`
	ReadmeTranslations      map[string]string `json:"readmeTranslations,omitempty"`
	LatestRelease           *Release          `json:"latestRelease,omitempty"`
	Processing              ProcessingStatus  `json:"processing"`
}

// Payload is the webhook body
type Payload struct {
	EventType string `json:"event_type"`
	Data      Data   `json:"data"`
}

// Data is the snapshot section of the webhook body
type Data struct {
	ID                      int64             `json:"id" validate:"gte=0"`
	FullName                string            `json:"full_name" validate:"required,full_name"`
	Owner                   string            `json:"owner"`
	Stars                   int               `json:"stars" validate:"gte=0"`
	Forks                   int               `json:"forks" validate:"gte=0"`
	Contributors            int               `json:"contributors" validate:"gte=0"`
	Watchers                int               `json:"watchers" validate:"gte=0"`
	PullRequests            int               `json:"pull_requests" validate:"gte=0"`
	Releases                int               `json:"releases" validate:"gte=0"`
	CommitCount             int               `json:"commit_count" validate:"gte=0"`
	Topics                  []string          `json:"topics"`
	Languages               map[string]int64  `json:"languages"`
	License                 string            `json:"license"`
	CapturedAt              *time.Time        `json:"captured_at" validate:"required"`
	DescriptionTranslations map[string]string `json:"description_translations"`
	ReadmeTranslations      map[string]string `json:"readme_translations"`
	LatestRelease           *Release          `json:"latest_release"`
	ProcessingStatus        ProcessingStatus  `json:"processing_status"`
}

// Snapshot converts a validated payload, id is assigned by the caller
func (p Payload) Snapshot(id string) Snapshot {
	d := p.Data
	s := Snapshot{
		ID:                      id,
		RepoID:                  d.ID,
		RepositoryFullName:      d.FullName,
		Owner:                   d.Owner,
		Stars:                   d.Stars,
		Forks:                   d.Forks,
		Contributors:            d.Contributors,
		Watchers:                d.Watchers,
		PullRequests:            d.PullRequests,
		Releases:                d.Releases,
		CommitCount:             d.CommitCount,
		Topics:                  d.Topics,
		Languages:               d.Languages,
		License:                 d.License,
		DescriptionTranslations: d.DescriptionTranslations,
		ReadmeTranslations:      d.ReadmeTranslations,
		LatestRelease:           d.LatestRelease,
		Processing:              d.ProcessingStatus,
	}
	if d.CapturedAt != nil {
		s.CapturedAt = d.CapturedAt.UTC()
	}
	if s.Topics == nil {
		s.Topics = []string{}
	}
	if s.Languages == nil {
		s.Languages = map[string]int64{}
	}
	if s.Owner == "" {
		s.Owner, _, _ = strings.Cut(d.FullName, "/")
	}
	return s
}

// ApplyResult summarizes one accepted webhook
type ApplyResult struct {
	RepoID           int64     `json:"repo_id"`
	SnapshotID       string    `json:"snapshot_id"`
	UpdatedAppsCount int       `json:"updated_apps_count"`
	ProcessedAt      time.Time `json:"processed_at"`
}
