// Package domain holds analysis job types, lifecycle rules and errors
package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/events"
)

// JobStatus is the lifecycle state of an analysis job
type JobStatus string

// Job statuses
const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobSucceeded  JobStatus = "succeeded"
	JobFailed     JobStatus = "failed"
)

// SourceGitHub is the only repository host analyzed today
const SourceGitHub = "github"

// MaxErrorLen caps the error text stored on a failed job
const MaxErrorLen = 500

// Errors callers match with errors.Is
var (
	ErrCloneFailed          = perr.New(perr.ErrorCodeUnavailable, "clone failed")
	ErrAnalyzerFailed       = perr.New(perr.ErrorCodeUnknown, "analyzer failed")
	ErrDuplicateInFlightJob = perr.New(perr.ErrorCodeConflict, "analysis already in flight for app")
	ErrSweepInProgress      = perr.New(perr.ErrorCodeConflict, "sweep already in progress")
	ErrInvalidTransition    = perr.New(perr.ErrorCodeConflict, "invalid job status transition")
)

// InFlight reports whether s blocks a new job for the same app
func (s JobStatus) InFlight() bool { return s == JobPending || s == JobInProgress }

// Terminal reports whether no transition leaves s
func (s JobStatus) Terminal() bool { return s == JobSucceeded || s == JobFailed }

// AllowedFrom lists the states that may move to s
func AllowedFrom(to JobStatus) []JobStatus {
	switch to {
	case JobInProgress:
		return []JobStatus{JobPending}
	case JobSucceeded:
		return []JobStatus{JobInProgress}
	case JobFailed:
		return []JobStatus{JobPending, JobInProgress}
	default:
		return nil
	}
}

// CanTransition reports whether from may move to to
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	for _, s := range AllowedFrom(to) {
		if s == from {
			return true
		}
	}
	return false
}

// Job is one analysis attempt for a catalog entry
type Job struct {
	ID            string     `json:"id"`
	AppID         string     `json:"appId"`
	RepositoryURL string     `json:"repositoryUrl"`
	SourceKind    string     `json:"sourceKind"`
	Status        JobStatus  `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// RepositoryMeta is the hosting metadata captured with a result
type RepositoryMeta = events.RepositoryMeta

// Result is the output of a successful job
type Result struct {
	AppID      string         `json:"appId"`
	JobID      string         `json:"jobId"`
	StackTags  []string       `json:"stackTags"`
	Repository RepositoryMeta `json:"repository"`
	Readme     string         `json:"readme"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// JobView is a job with its result when it has one
type JobView struct {
	Job
	Result *Result `json:"result,omitempty"`
}

// SweepReport summarizes one orchestrator pass
type SweepReport struct {
	Seen       int       `json:"seen"`
	Dispatched int       `json:"dispatched"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// UnionTags merges per component tag lists into a sorted set
func UnionTags(groups [][]string) []string {
	set := map[string]struct{}{}
	for _, g := range groups {
		for _, t := range g {
			if t = strings.TrimSpace(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TrimErr shortens s to MaxErrorLen bytes without splitting a rune
func TrimErr(s string) string {
	if len(s) <= MaxErrorLen {
		return s
	}
	cut := MaxErrorLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
