package domain

import "strings"

// JobStatus is the provider-agnostic lifecycle of a ProviderJob.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// ParseJobStatus folds vendor status words into a JobStatus. Unknown words are
// treated as still running.
func ParseJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "successful", "completed", "complete", "ready":
		return JobStatusSucceeded
	case "failed", "failure", "error", "canceled", "cancelled", "aborted":
		return JobStatusFailed
	case "processing", "running", "in_progress":
		return JobStatusProcessing
	default:
		return JobStatusPending
	}
}

// ProviderJob is a single request issued to a vendor.
type ProviderJob struct {
	ID        string
	Status    JobStatus
	RawStatus string
	Output    []ImageRef
	Error     string
	// Size is the WxH size the vendor was actually asked for, when the
	// adapter negotiates one.
	Size string
}
