package job

import "time"

type Status string

const (
	StatusQueued     Status = "queued"
	StatusFetching   Status = "fetching"
	StatusProcessing Status = "processing"
	StatusChunking   Status = "chunking"
	StatusEmbedding  Status = "embedding"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Cancellable reports whether a cancellation request may still be honored.
// Once chunking or embedding has begun the in-flight fan-out is not
// interruptible and cancellation is rejected.
func (s Status) Cancellable() bool {
	switch s {
	case StatusQueued, StatusFetching, StatusProcessing:
		return true
	}
	return false
}

type DocumentType string

const (
	TypeHTML    DocumentType = "html"
	TypePDF     DocumentType = "pdf"
	TypeUnknown DocumentType = "unknown"
)

// StatusEntry is one append-only record in a job's status history.
type StatusEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// Job tracks one submitted URL through the processing pipeline.
// Progress is monotonic while the job is alive; on failure it freezes at
// its last value rather than resetting.
type Job struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Status       Status        `json:"status"`
	DocumentType DocumentType  `json:"document_type"`
	Progress     int           `json:"progress"`
	Error        string        `json:"error,omitempty"`
	DocumentID   string        `json:"document_id,omitempty"`
	History      []StatusEntry `json:"status_history"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CancelledMessage is recorded when a user cancels a job.
const CancelledMessage = "job cancelled by user"
