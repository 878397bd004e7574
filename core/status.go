package core

// JobStatus is the lifecycle state of an ingestion job. The set of values
// is closed; persisted records must contain exactly one of these.
type JobStatus int

const (
	// StatusUnknown is the zero value and never valid for a persisted job.
	StatusUnknown JobStatus = iota

	// StatusPending means the job has been created but not yet triggered.
	StatusPending

	// StatusInProgress means ingestion work is underway.
	StatusInProgress

	// StatusIngestionCompleted is the successful terminal state for ingestion.
	StatusIngestionCompleted

	// StatusIngestionFailed is the failed terminal state for ingestion.
	StatusIngestionFailed

	// StatusDeleting means deletion work is underway.
	StatusDeleting

	// StatusDeleteCompleted is the successful terminal state for deletion.
	StatusDeleteCompleted

	// StatusDeleteFailed is the failed terminal state for deletion.
	StatusDeleteFailed
)

var statusNames = map[JobStatus]string{
	StatusUnknown:            "UNKNOWN",
	StatusPending:            "PENDING",
	StatusInProgress:         "IN_PROGRESS",
	StatusIngestionCompleted: "INGESTION_COMPLETED",
	StatusIngestionFailed:    "INGESTION_FAILED",
	StatusDeleting:           "DELETING",
	StatusDeleteCompleted:    "DELETE_COMPLETED",
	StatusDeleteFailed:       "DELETE_FAILED",
}

// String returns the canonical name of the status.
func (s JobStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTerminalStatus reports whether a job in this status will never
// transition again. Exactly the four completed/failed values are terminal.
func IsTerminalStatus(s JobStatus) bool {
	switch s {
	case StatusIngestionCompleted, StatusIngestionFailed,
		StatusDeleteCompleted, StatusDeleteFailed:
		return true
	}
	return false
}

// IsSuccessStatus reports whether the status is a successful terminal state.
func IsSuccessStatus(s JobStatus) bool {
	return s == StatusIngestionCompleted || s == StatusDeleteCompleted
}

// IsActiveStatus reports whether the job is currently being worked on.
func IsActiveStatus(s JobStatus) bool {
	return s == StatusInProgress || s == StatusDeleting
}
