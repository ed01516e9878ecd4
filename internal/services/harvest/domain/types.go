// Package domain holds rank harvesting types and errors
package domain

import (
	"strings"
	"time"

	perr "stackscout/internal/platform/errors"
)

// RepositorySummary is one harvested candidate, consumed once by ingestion
type RepositorySummary struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	HomepageURL    string `json:"homepageUrl"`
	URL            string `json:"url"`
	OwnerAvatarURL string `json:"ownerAvatarUrl"`
}

// Period selects the ranking window
type Period string

// Supported periods
const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Errors callers match with errors.Is
var (
	ErrUpstreamUnavailable = perr.New(perr.ErrorCodeUnavailable, "rank source unavailable")
	ErrTranslationFailed   = perr.New(perr.ErrorCodeUnavailable, "translation failed")
)

// ParsePeriod accepts daily, weekly or monthly, empty means daily
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return p, nil
	default:
		return "", perr.InvalidArgf("unknown period %q", s)
	}
}

// Days is the window length in days
func (p Period) Days() int {
	switch p {
	case Weekly:
		return 7
	case Monthly:
		return 30
	default:
		return 1
	}
}

// Since returns the start of the window ending at now
func (p Period) Since(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -p.Days())
}
