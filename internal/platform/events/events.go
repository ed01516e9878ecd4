// Package events carries the pipeline's domain events between producers and consumers
package events

import "strings"

// Event names on the bus and on the wire
const (
	NameAnalysisRequested = "analysis/requested"
	NameAnalysisFinished  = "analysis/finished"
	NameAnalysisFailed    = "analysis/failed"

	submissionBatchPrefix = "github-app-submission/"
)

// Event is implemented by every payload the bus carries
type Event interface {
	EventName() string
}

// Keyed events name their own partition key
type Keyed interface {
	Key() string
}

// PartitionKey is the Keyed key of e, or its name when it has none
func PartitionKey(e Event) string {
	if k, ok := e.(Keyed); ok {
		if key := k.Key(); key != "" {
			return key
		}
	}
	return e.EventName()
}

func appKey(appID, jobID string) string {
	if appID != "" {
		return appID
	}
	return jobID
}

// SubmissionBatchName is the event name for a harvested batch of a period
func SubmissionBatchName(period string) string { return submissionBatchPrefix + period }

// IsSubmissionBatch reports whether name is a submission batch event
func IsSubmissionBatch(name string) bool {
	return strings.HasPrefix(name, submissionBatchPrefix) && len(name) > len(submissionBatchPrefix)
}

// AnalysisRequested asks a worker to analyze one catalog entry's repository
type AnalysisRequested struct {
	AppID      string `json:"appId"`
	GitHub     string `json:"github"`
	JobID      string `json:"jobId"`
	UserID     string `json:"userId"`
	Status     string `json:"status"`
	SourceKind string `json:"sourceKind"`
}

// EventName implements Event
func (AnalysisRequested) EventName() string { return NameAnalysisRequested }

// Key implements Keyed
func (e AnalysisRequested) Key() string { return appKey(e.AppID, e.JobID) }

// RepositoryMeta is the hosting metadata attached to a finished analysis
type RepositoryMeta struct {
	FullName      string   `json:"fullName"`
	Owner         string   `json:"owner"`
	OwnerAvatar   string   `json:"ownerAvatar,omitempty"`
	Description   string   `json:"description,omitempty"`
	Homepage      string   `json:"homepage,omitempty"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Language      string   `json:"language,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	License       string   `json:"license,omitempty"`
	DefaultBranch string   `json:"defaultBranch,omitempty"`
}

// AnalysisFinished carries a successful result
type AnalysisFinished struct {
	AppID      string         `json:"appId"`
	JobID      string         `json:"jobId"`
	Stack      []string       `json:"stack"`
	Repository RepositoryMeta `json:"repository"`
	Readme     string         `json:"readme"`
}

// EventName implements Event
func (AnalysisFinished) EventName() string { return NameAnalysisFinished }

// Key implements Keyed
func (e AnalysisFinished) Key() string { return appKey(e.AppID, e.JobID) }

// AnalysisFailed carries the captured error of a failed job
type AnalysisFailed struct {
	AppID string `json:"appId"`
	JobID string `json:"jobId"`
	Error string `json:"error"`
}

// EventName implements Event
func (AnalysisFailed) EventName() string { return NameAnalysisFailed }

// Key implements Keyed
func (e AnalysisFailed) Key() string { return appKey(e.AppID, e.JobID) }

// Submission is the wire shape of a newly created submission
type Submission struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Status          string `json:"status"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	LongDescription string `json:"longDescription"`
	Type            string `json:"type"`
	Website         string `json:"website,omitempty"`
	RepositoryURL   string `json:"repositoryUrl"`
	IconURL         string `json:"iconUrl,omitempty"`
}

// SubmissionBatchCreated announces the submissions created by one harvest
type SubmissionBatchCreated struct {
	Period      string       `json:"period"`
	Submissions []Submission `json:"submissions"`
}

// EventName implements Event
func (e SubmissionBatchCreated) EventName() string { return SubmissionBatchName(e.Period) }
