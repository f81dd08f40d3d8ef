package config

const (
	// TopicJobCreated carries one event per accepted submission.
	TopicJobCreated = "job.created"

	// TopicJobStatus carries one event per status transition (id/status/progress).
	TopicJobStatus = "job.status"

	// TopicJobCompleted carries the job id and the produced document id.
	TopicJobCompleted = "job.completed"

	// TopicJobFailed carries the job id and the error message.
	TopicJobFailed = "job.failed"

	// TopicJobCancelled acknowledges an accepted cancellation request.
	TopicJobCancelled = "job.cancelled"
)
