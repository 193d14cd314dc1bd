package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reviewgate/reviewgate/internal/domain/model"
	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// ReviewService runs the full review pipeline for one job: admission check,
// content fetch, size gate, review generation, comment posting, and attempt
// registration. It depends only on port interfaces.
type ReviewService struct {
	admission    *AdmissionService
	fetcher      driven.ContentFetcher
	generator    driven.ReviewGenerator
	commenter    driven.CommentPoster
	notifier     driven.Notifier // May be nil.
	logger       *slog.Logger
	headBranch   string
	tokenCeiling int
	systemPrompt string
}

// NewReviewService creates a ReviewService with the required dependencies.
// notifier may be nil to disable out-of-band alerts.
func NewReviewService(
	admission *AdmissionService,
	fetcher driven.ContentFetcher,
	generator driven.ReviewGenerator,
	commenter driven.CommentPoster,
	notifier driven.Notifier,
	headBranch string,
	tokenCeiling int,
	systemPrompt string,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		admission:    admission,
		fetcher:      fetcher,
		generator:    generator,
		commenter:    commenter,
		notifier:     notifier,
		logger:       logger,
		headBranch:   headBranch,
		tokenCeiling: tokenCeiling,
		systemPrompt: systemPrompt,
	}
}

// Process handles one review job end to end. Admission rejections, oversized
// input, and generation exhaustion are terminal-but-normal outcomes: each is
// reported as a pull request comment and Process returns nil. A returned
// error means the job failed unexpectedly; it is mirrored to the alerting
// channel here, and the caller decides whether it crashes the request (sync
// path) or is absorbed by the worker loop.
func (s *ReviewService) Process(ctx context.Context, job model.ReviewJob) error {
	if err := s.process(ctx, job); err != nil {
		s.notify(ctx, "Review job failed",
			fmt.Sprintf("Repository: %s\nPR: #%d\n\nError:\n\n%v", job.RepoFullName, job.PRNumber, err))
		return err
	}
	return nil
}

func (s *ReviewService) process(ctx context.Context, job model.ReviewJob) error {
	dec, err := s.admission.Check(ctx, job.RepoFullName, time.Now())
	if err != nil {
		return fmt.Errorf("admission check: %w", err)
	}
	if !dec.Allowed {
		if err := s.commenter.PostComment(ctx, job.RepoFullName, job.PRNumber, dec.Message); err != nil {
			return fmt.Errorf("post rejection comment: %w", err)
		}
		return nil
	}

	content, err := s.fetcher.FetchReviewInputs(ctx, job.RepoFullName, s.headBranch)
	if err != nil {
		return fmt.Errorf("fetch review inputs for %s: %w", job.RepoFullName, err)
	}

	code, approxTokens, err := FlattenNotebook(content.NotebookRaw)
	if err != nil {
		return fmt.Errorf("flatten notebook for %s#%d: %w", job.RepoFullName, job.PRNumber, err)
	}

	if approxTokens > s.tokenCeiling {
		body := fmt.Sprintf(
			"Input is too large (~%d tokens, limit %d). Try removing uninformative notebook cell outputs.",
			approxTokens, s.tokenCeiling,
		)
		if err := s.commenter.PostComment(ctx, job.RepoFullName, job.PRNumber, body); err != nil {
			return fmt.Errorf("post too-large comment: %w", err)
		}
		if err := s.admission.Register(ctx, job.RepoFullName, false, time.Now()); err != nil {
			return err
		}
		s.notify(ctx, "Input too large",
			fmt.Sprintf("Repository: %s\n\nError:\n\ninput exceeds the token ceiling (~%d tokens)", job.RepoFullName, approxTokens))
		return nil
	}

	result, err := s.generator.Generate(ctx, s.systemPrompt, content.ReadmeText, code)
	if err != nil {
		var exhausted *driven.GenerationExhaustedError
		if !errors.As(err, &exhausted) {
			return fmt.Errorf("generate review for %s#%d: %w", job.RepoFullName, job.PRNumber, err)
		}

		body := fmt.Sprintf(
			"Failed to reach the review model. Retry later or modify the request.\nLast error: %s",
			exhausted.LastError,
		)
		if err := s.commenter.PostComment(ctx, job.RepoFullName, job.PRNumber, body); err != nil {
			return fmt.Errorf("post generation-failure comment: %w", err)
		}
		if err := s.admission.Register(ctx, job.RepoFullName, false, time.Now()); err != nil {
			return err
		}
		s.notify(ctx, "Review generation failed",
			fmt.Sprintf("Repository: %s\n\nError:\n\n%s", job.RepoFullName, exhausted.LastError))
		return nil
	}

	body := fmt.Sprintf(
		"%s\n\n---\nAttempts remaining today: %d/%d\nApproximate input tokens: ~%d\nModel: %s",
		result.Text, dec.Remaining, dec.AllowedTotal, approxTokens, result.Model,
	)
	if err := s.commenter.PostComment(ctx, job.RepoFullName, job.PRNumber, body); err != nil {
		return fmt.Errorf("post review comment: %w", err)
	}

	s.logger.Info("review posted",
		"repo", job.RepoFullName,
		"pr_number", job.PRNumber,
		"model", result.Model,
		"approx_tokens", approxTokens,
	)

	return s.admission.Register(ctx, job.RepoFullName, true, time.Now())
}

// notify delivers a best-effort alert; failure is logged and swallowed.
func (s *ReviewService) notify(ctx context.Context, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.logger.Error("alert delivery failed", "subject", subject, "error", err)
	}
}
