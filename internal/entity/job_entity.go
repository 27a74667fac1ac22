package entity

import "time"

type JobType string

const (
	JobTypeBulkIndex     JobType = "bulk_index"
	JobTypeFlagDocuments JobType = "flag_documents"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TransitionSources lists the states a job may move to `to` from.
// pending -> failed covers dispatch failures and restart recovery.
func TransitionSources(to JobStatus) []JobStatus {
	switch to {
	case JobStatusProcessing:
		return []JobStatus{JobStatusPending}
	case JobStatusCompleted:
		return []JobStatus{JobStatusProcessing}
	case JobStatusFailed:
		return []JobStatus{JobStatusPending, JobStatusProcessing}
	}
	return nil
}

func CanTransition(from, to JobStatus) bool {
	for _, s := range TransitionSources(to) {
		if s == from {
			return true
		}
	}
	return false
}

type Job struct {
	Id        string
	Type      JobType
	Status    JobStatus
	Params    JobParams
	Result    JobResult
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobUpdate carries the fields written on a status transition.
type JobUpdate struct {
	Status JobStatus
	Result JobResult
	Error  *string
}

// JobParams is implemented only by the parameter types in this package.
type JobParams interface {
	JobType() JobType
	sealedParams()
}

// JobResult is implemented only by the result types in this package.
type JobResult interface {
	JobType() JobType
	sealedResult()
}

type BulkIndexParams struct {
	URLs []string `json:"urls"`
}

func (BulkIndexParams) JobType() JobType { return JobTypeBulkIndex }
func (BulkIndexParams) sealedParams()    {}

type FlagParams struct {
	ChangedLaw          string  `json:"changed_law"`
	WhatChanged         *string `json:"what_changed,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

func (FlagParams) JobType() JobType { return JobTypeFlagDocuments }
func (FlagParams) sealedParams()    {}

type FailedURL struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

type BulkIndexResult struct {
	Indexed    int         `json:"indexed"`
	Failed     int         `json:"failed"`
	FailedURLs []FailedURL `json:"failed_urls"`
}

func (BulkIndexResult) JobType() JobType { return JobTypeBulkIndex }
func (BulkIndexResult) sealedResult()    {}

type FlaggedDocument struct {
	DocumentId       string `json:"document_id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	SuggestionsCount int    `json:"suggestions_count"`
}

// CandidateError records a candidate dropped by a failing stage.
type CandidateError struct {
	DocumentId string `json:"document_id"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

type FlagResult struct {
	TotalFound       int               `json:"total_found"`
	Validated        int               `json:"validated"`
	Flagged          int               `json:"flagged"`
	Analyzed         int               `json:"analyzed"`
	FlaggedDocuments []FlaggedDocument `json:"flagged_documents"`
	Errors           []CandidateError  `json:"errors,omitempty"`
	Message          string            `json:"message"`
}

func (FlagResult) JobType() JobType { return JobTypeFlagDocuments }
func (FlagResult) sealedResult()    {}
