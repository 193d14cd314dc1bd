package driven

import (
	"context"
	"fmt"
)

// ReviewResult is a successful review generation: the review text and the
// identifier of the model that produced it.
type ReviewResult struct {
	Text  string
	Model string
}

// GenerationExhaustedError signals that the generator ran out of models and
// attempts without producing a review. LastError carries the final underlying
// failure for inclusion in the user-facing comment.
type GenerationExhaustedError struct {
	Model     string
	LastError string
}

func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("review generation exhausted (model %s): %s", e.Model, e.LastError)
}

// ReviewGenerator defines the driven port for producing an automated review.
// Implementations apply their own retry and fallback policy internally and
// enforce a finite per-request timeout; the caller treats Generate as a single
// logical call with bounded latency.
type ReviewGenerator interface {
	Generate(ctx context.Context, systemPrompt, criteria, code string) (ReviewResult, error)
}
