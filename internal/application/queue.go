package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

// idlePoll bounds the sleep between queue polls when no work is pending so
// shutdown stays responsive.
const idlePoll = time.Second

// ProcessFunc executes one review job.
type ProcessFunc func(ctx context.Context, job model.ReviewJob) error

// ThrottledQueue is a process-wide FIFO of review jobs drained by a single
// worker that enforces a minimum spacing between the start of consecutive job
// executions. The spacing is global, not per repository: it decouples the
// inbound webhook rate from the review-generation call rate.
type ThrottledQueue struct {
	mu   sync.Mutex
	jobs []model.ReviewJob

	minInterval time.Duration
	process     ProcessFunc
	logger      *slog.Logger

	// lastProcessedAt is touched only by the worker goroutine.
	lastProcessedAt time.Time
}

// NewThrottledQueue creates a queue that spaces job executions at least
// minInterval apart.
func NewThrottledQueue(minInterval time.Duration, process ProcessFunc, logger *slog.Logger) *ThrottledQueue {
	return &ThrottledQueue{
		minInterval: minInterval,
		process:     process,
		logger:      logger,
	}
}

// Enqueue appends a job to the queue.
func (q *ThrottledQueue) Enqueue(job model.ReviewJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	q.logger.Info("job enqueued", "repo", job.RepoFullName, "pr_number", job.PRNumber, "depth", len(q.jobs))
}

// Len returns the number of pending jobs.
func (q *ThrottledQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Start runs the worker loop until the context is canceled. Jobs run strictly
// one at a time; a failing job is logged but never terminates the loop.
// Escalation of failures is the process func's concern.
func (q *ThrottledQueue) Start(ctx context.Context) {
	for {
		job, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				q.logger.Info("throttled worker stopped")
				return
			case <-time.After(idlePoll):
			}
			continue
		}

		if wait := time.Until(q.lastProcessedAt.Add(q.minInterval)); wait > 0 {
			select {
			case <-ctx.Done():
				q.logger.Info("throttled worker stopped")
				return
			case <-time.After(wait):
			}
		}

		// Stamped before execution so a long-running job cannot compress the
		// interval to the next one.
		q.lastProcessedAt = time.Now()

		if err := q.process(ctx, job); err != nil {
			q.logger.Error("review job failed",
				"repo", job.RepoFullName,
				"pr_number", job.PRNumber,
				"error", err,
			)
		}
	}
}

// pop removes and returns the oldest pending job.
func (q *ThrottledQueue) pop() (model.ReviewJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return model.ReviewJob{}, false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, true
}
