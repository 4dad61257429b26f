package githost

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
)

// GitHubConfig configures the GitHub-backed client. The token is optional;
// unauthenticated requests work for public repositories within rate limits.
type GitHubConfig struct {
	Token  string
	Logger zerolog.Logger
}

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	client *github.Client
	logger zerolog.Logger
}

// NewGitHubClient builds a GitHub-backed source-hosting client.
func NewGitHubClient(cfg GitHubConfig) *GitHubClient {
	client := github.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	return &GitHubClient{
		client: client,
		logger: cfg.Logger.With().Str("component", "githost").Logger(),
	}
}

// FileContent fetches and decodes a single file from the repository root.
func (c *GitHubClient) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", fmt.Errorf("get contents %s: %w", path, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode contents %s: %w", path, err)
	}
	return content, nil
}

// ListDir lists a repository directory. Download URLs are included so file
// bodies can be fetched without further API calls.
func (c *GitHubClient) ListDir(ctx context.Context, owner, repo, path string) ([]Entry, error) {
	_, dir, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list contents %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, Entry{
			Name:        item.GetName(),
			Type:        item.GetType(),
			DownloadURL: item.GetDownloadURL(),
		})
	}
	return entries, nil
}

// LatestCommit returns the SHA of the most recent commit on the default
// branch.
func (c *GitHubClient) LatestCommit(ctx context.Context, owner, repo string) (string, error) {
	commits, _, err := c.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("repository has no commits")
	}
	return commits[0].GetSHA(), nil
}

// EnablePages turns on static-page hosting for the repository and returns
// the resulting pages URL.
func (c *GitHubClient) EnablePages(ctx context.Context, owner, repo string) (string, error) {
	pages, _, err := c.client.Repositories.EnablePages(ctx, owner, repo, &github.Pages{
		Source: &github.PagesSource{
			Branch: github.String("main"),
			Path:   github.String("/"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("enable pages: %w", err)
	}
	return pages.GetHTMLURL(), nil
}

// Download fetches a raw file body from a download URL returned by ListDir.
func Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
