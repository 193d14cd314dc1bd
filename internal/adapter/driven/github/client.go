// Package github implements the ContentFetcher and CommentPoster ports using
// the go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ContentFetcher = (*Client)(nil)
	_ driven.CommentPoster  = (*Client)(nil)
)

// Client implements the ContentFetcher and CommentPoster ports using the
// go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchReviewInputs walks the repository tree on the given ref and downloads
// the first README.md (case-insensitive suffix match) and the first
// solution.ipynb it finds. Missing files yield empty strings, not errors.
func (c *Client) FetchReviewInputs(ctx context.Context, repoFullName, ref string) (driven.RepoContent, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return driven.RepoContent{}, err
	}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return driven.RepoContent{}, fmt.Errorf("fetching tree for %s@%s: %w", repoFullName, ref, err)
	}

	var readmeSHA, notebookSHA string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if readmeSHA == "" && strings.HasSuffix(strings.ToLower(path), "readme.md") {
			readmeSHA = entry.GetSHA()
		}
		if notebookSHA == "" && strings.HasSuffix(path, "solution.ipynb") {
			notebookSHA = entry.GetSHA()
		}
		if readmeSHA != "" && notebookSHA != "" {
			break
		}
	}

	var content driven.RepoContent

	if readmeSHA != "" {
		data, _, err := c.gh.Git.GetBlobRaw(ctx, owner, repo, readmeSHA)
		if err != nil {
			return driven.RepoContent{}, fmt.Errorf("downloading README blob for %s: %w", repoFullName, err)
		}
		content.ReadmeText = string(data)
	}

	if notebookSHA != "" {
		data, _, err := c.gh.Git.GetBlobRaw(ctx, owner, repo, notebookSHA)
		if err != nil {
			return driven.RepoContent{}, fmt.Errorf("downloading notebook blob for %s: %w", repoFullName, err)
		}
		content.NotebookRaw = string(data)
	}

	return content, nil
}

// PostComment creates a top-level (non-diff) comment on a pull request.
func (c *Client) PostComment(ctx context.Context, repoFullName string, prNumber int, body string) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	_, _, err = c.gh.Issues.CreateComment(ctx, owner, repo, prNumber, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating issue comment on %s#%d: %w", repoFullName, prNumber, err)
	}

	return nil
}

// splitRepo splits an "owner/repo" full name into its parts.
func splitRepo(repoFullName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository full name %q: expected owner/repo", repoFullName)
	}
	return parts[0], parts[1], nil
}
