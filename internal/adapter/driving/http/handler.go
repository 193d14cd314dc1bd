// Package httphandler is the HTTP driving adapter: it receives GitHub webhook
// deliveries and exposes the health endpoint.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/reviewgate/reviewgate/internal/application"
	"github.com/reviewgate/reviewgate/internal/domain/model"
)

// handledActions are the pull request actions that trigger a review.
var handledActions = map[string]bool{
	"opened":   true,
	"reopened": true,
}

// Handler is the HTTP driving adapter.
type Handler struct {
	reviews    *application.ReviewService
	queue      *application.ThrottledQueue // Nil in sync mode.
	secret     []byte                      // Empty disables signature verification.
	baseBranch string
	headBranch string
	logger     *slog.Logger
}

// NewHandler creates a Handler. queue may be nil, in which case webhook
// deliveries are processed synchronously before the response is written.
func NewHandler(
	reviews *application.ReviewService,
	queue *application.ThrottledQueue,
	secret string,
	baseBranch string,
	headBranch string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reviews:    reviews,
		queue:      queue,
		secret:     []byte(secret),
		baseBranch: baseBranch,
		headBranch: headBranch,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", h.Webhook)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Webhook handles a GitHub webhook delivery. Everything that is not a
// pull_request opened/reopened on the configured branch pair is acknowledged
// as ignored without touching the admission gate.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := gh.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Warn("webhook payload rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	eventType := gh.WebHookType(r)
	if eventType != "pull_request" {
		writeStatus(w, http.StatusOK, "ignored")
		return
	}

	parsed, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed pull_request payload")
		return
	}
	event, ok := parsed.(*gh.PullRequestEvent)
	if !ok || event.GetPullRequest() == nil {
		writeError(w, http.StatusBadRequest, "malformed pull_request payload")
		return
	}

	if !handledActions[event.GetAction()] {
		writeStatus(w, http.StatusOK, "ignored")
		return
	}

	pr := event.GetPullRequest()
	baseBranch := pr.GetBase().GetRef()
	headBranch := pr.GetHead().GetRef()
	if baseBranch != h.baseBranch || headBranch != h.headBranch {
		writeStatus(w, http.StatusOK, "ignored")
		return
	}

	job := model.ReviewJob{
		RepoFullName: pr.GetHead().GetRepo().GetFullName(),
		PRNumber:     pr.GetNumber(),
	}

	h.logger.Info("webhook accepted",
		"repo", job.RepoFullName,
		"pr_number", job.PRNumber,
		"action", event.GetAction(),
	)

	if h.queue != nil {
		h.queue.Enqueue(job)
		writeStatus(w, http.StatusAccepted, "queued")
		return
	}

	if err := h.reviews.Process(r.Context(), job); err != nil {
		h.logger.Error("review processing failed",
			"repo", job.RepoFullName,
			"pr_number", job.PRNumber,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	writeStatus(w, http.StatusOK, "processed")
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
