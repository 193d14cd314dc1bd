package driven

import "context"

// RepoContent holds the raw review inputs fetched from a repository.
// Either field may be empty when the corresponding file is absent.
type RepoContent struct {
	ReadmeText  string
	NotebookRaw string
}

// ContentFetcher defines the driven port for retrieving review inputs:
// the repository README and the designated notebook file on a given ref.
type ContentFetcher interface {
	FetchReviewInputs(ctx context.Context, repoFullName, ref string) (RepoContent, error)
}
