package githost

import (
	"context"
	"fmt"
	"regexp"
)

// Entry describes one item of a repository directory listing.
type Entry struct {
	Name        string
	Type        string
	DownloadURL string
}

// Client is the narrow source-hosting interface the scoring pipeline
// consumes: fetch a file, list a directory, read the latest commit and
// enable static-page hosting.
type Client interface {
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
	ListDir(ctx context.Context, owner, repo, path string) ([]Entry, error)
	LatestCommit(ctx context.Context, owner, repo string) (string, error)
	EnablePages(ctx context.Context, owner, repo string) (string, error)
}

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)`)

// ParseRepoURL extracts the owner and repository name from a repository URL.
func ParseRepoURL(repoURL string) (string, string, error) {
	match := repoURLPattern.FindStringSubmatch(repoURL)
	if match == nil {
		return "", "", fmt.Errorf("invalid repository URL format: %s", repoURL)
	}
	return match[1], match[2], nil
}
