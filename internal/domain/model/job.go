package model

// ReviewJob is one unit of deferred review work. Jobs are created on webhook
// receipt, consumed exactly once, and discarded after processing; there is no
// automatic re-queue on failure.
type ReviewJob struct {
	RepoFullName string
	PRNumber     int
}
