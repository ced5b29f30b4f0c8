package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GitHubClient reads commits and repository search results.
type GitHubClient struct {
	http *HTTPClient
}

var (
	_ CommitLister       = (*GitHubClient)(nil)
	_ RepositorySearcher = (*GitHubClient)(nil)
)

// NewGitHubClient builds a client for the GitHub REST API.
func NewGitHubClient(cfg HTTPConfig) (*GitHubClient, error) {
	client, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GitHubClient{http: client}, nil
}

// ListCommits returns the newest commits of owner/repo.
func (c *GitHubClient) ListCommits(ctx context.Context, owner, repo string, perPage int) ([]Commit, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("sources: owner and repo are required")
	}
	query := url.Values{}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	var commits []Commit
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits"
	if err := c.http.get(ctx, path, query, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

type repositorySearch struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}

// SearchRepositories returns repositories matching query, most starred first.
func (c *GitHubClient) SearchRepositories(ctx context.Context, query string, perPage int) ([]Repository, error) {
	if query == "" {
		return nil, fmt.Errorf("sources: search query is required")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}
	var resp repositorySearch
	if err := c.http.get(ctx, "/search/repositories", params, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
