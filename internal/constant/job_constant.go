package constant

const (
	JobMessageBulkIndex = "Indexing %d documents"
	JobMessageFlag      = "Searching and flagging documents..."

	// Failure recorded on jobs left unfinished by a previous process.
	JobInterruptedError = "interrupted by service restart"

	ResetMessage = "All data deleted successfully"
)

// Lifecycle event names published on the event bus as events.<name>.
const (
	EventJobSubmitted = "JOB_SUBMITTED"
	EventJobStarted   = "JOB_STARTED"
	EventJobCompleted = "JOB_COMPLETED"
	EventJobFailed    = "JOB_FAILED"
)
