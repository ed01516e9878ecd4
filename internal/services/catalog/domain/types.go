// Package domain holds catalog types shared by the ingestion and analysis pipeline
package domain

import (
	"net/url"
	"strings"
	"time"

	perr "stackscout/internal/platform/errors"
)

// UserSystem is the submitter of harvested entries
const UserSystem = "system"

// SubmissionStatus is the review state of a submission
type SubmissionStatus string

// Submission statuses
const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// SubmissionType classifies what a submission is
type SubmissionType string

// Submission types
const (
	TypeApplication SubmissionType = "application"
	TypeClient      SubmissionType = "client"
	TypeServer      SubmissionType = "server"
)

// Submission is a pending catalog entry awaiting review
type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Status          SubmissionStatus `json:"status"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	LongDescription string           `json:"longDescription"`
	Type            SubmissionType   `json:"type"`
	Website         string           `json:"website,omitempty"`
	RepositoryURL   string           `json:"repositoryUrl"`
	DocsURL         string           `json:"docsUrl,omitempty"`
	FaviconAssetID  string           `json:"faviconAssetId,omitempty"`
	LogoAssetID     string           `json:"logoAssetId,omitempty"`
	IconURL         string           `json:"iconUrl,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// App is a catalog entry that may reference a source repository
type App struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	RepositoryURL      string     `json:"repositoryUrl"`
	RepositoryFullName string     `json:"repositoryFullName"`
	SnapshotID         string     `json:"snapshotId,omitempty"`
	SnapshotCapturedAt *time.Time `json:"snapshotCapturedAt,omitempty"`
	StackTags          []string   `json:"stackTags"`
}

// NormalizeRepoURL canonicalizes a repository URL for comparison
// https scheme, lowercase host and path, no .git suffix, no trailing slash
func NormalizeRepoURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", perr.InvalidArgf("empty repository url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", perr.InvalidArgf("invalid repository url %q", raw)
	}
	p := strings.ToLower(strings.TrimRight(u.Path, "/"))
	p = strings.TrimSuffix(p, ".git")
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", perr.InvalidArgf("repository url %q has no path", raw)
	}
	return "https://" + strings.ToLower(u.Host) + p, nil
}

// SplitFullName returns owner and name from a repository URL or owner/name string
func SplitFullName(repo string) (owner, name string, err error) {
	p := repo
	if looksLikeURL(repo) {
		n, nerr := NormalizeRepoURL(repo)
		if nerr != nil {
			return "", "", nerr
		}
		u, _ := url.Parse(n)
		p = u.Path
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", perr.InvalidArgf("repository %q is not owner/name", repo)
	}
	return strings.ToLower(parts[0]), strings.ToLower(parts[1]), nil
}

// looksLikeURL is true for a scheme or a host-like first segment (github.com/o/r)
// owners never contain dots so vercel/next.js stays a bare full name
func looksLikeURL(repo string) bool {
	s := strings.TrimSpace(repo)
	if strings.Contains(s, "://") {
		return true
	}
	first, _, _ := strings.Cut(strings.TrimLeft(s, "/"), "/")
	return strings.Contains(first, ".")
}

// GitHubHost is the only host the analysis pipeline clones and queries
const GitHubHost = "github.com"

// ErrUnsupportedHost marks a repository that does not live on GitHub
var ErrUnsupportedHost = perr.New(perr.ErrorCodeInvalidArgument, "repository host is not supported")

// SplitGitHub is SplitFullName restricted to github.com; bare owner/name counts as GitHub
func SplitGitHub(repo string) (owner, name string, err error) {
	if looksLikeURL(repo) {
		n, nerr := NormalizeRepoURL(repo)
		if nerr != nil {
			return "", "", nerr
		}
		u, _ := url.Parse(n)
		if h := strings.TrimPrefix(u.Hostname(), "www."); h != GitHubHost {
			return "", "", perr.Tag(ErrUnsupportedHost, perr.InvalidArgf("repository %q is hosted on %s", repo, u.Host))
		}
	}
	return SplitFullName(repo)
}

// GitHubURL is the clone URL for owner/name
func GitHubURL(owner, name string) string { return "https://" + GitHubHost + "/" + owner + "/" + name }

// FullName returns owner/name for a repository URL
func FullName(repoURL string) (string, error) {
	owner, name, err := SplitFullName(repoURL)
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

// MatchesRepo reports whether the app points at fullName by its stored name or its URL
func (a App) MatchesRepo(fullName string) bool {
	if fullName == "" {
		return false
	}
	if strings.EqualFold(a.RepositoryFullName, fullName) {
		return true
	}
	if a.RepositoryURL == "" {
		return false
	}
	fn, err := FullName(a.RepositoryURL)
	return err == nil && strings.EqualFold(fn, fullName)
}
