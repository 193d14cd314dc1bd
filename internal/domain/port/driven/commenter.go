package driven

import "context"

// CommentPoster defines the driven port for posting a top-level comment on a
// pull request. Every user-facing outcome (accept, reject, success, failure)
// goes through this port; nothing is silently dropped.
type CommentPoster interface {
	PostComment(ctx context.Context, repoFullName string, prNumber int, body string) error
}
