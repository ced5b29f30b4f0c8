package sources

import (
	"context"
	"time"
)

// CommitLister lists recent commits of a repository.
type CommitLister interface {
	ListCommits(ctx context.Context, owner, repo string, perPage int) ([]Commit, error)
}

// RepositorySearcher searches public repositories ordered by stars.
type RepositorySearcher interface {
	SearchRepositories(ctx context.Context, query string, perPage int) ([]Repository, error)
}

// UserLister returns the placeholder user directory.
type UserLister interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// PostLister returns placeholder posts.
type PostLister interface {
	ListPosts(ctx context.Context, limit int) ([]Post, error)
}

// SummaryFetcher returns the encyclopedia summary of a page.
type SummaryFetcher interface {
	PageSummary(ctx context.Context, title string) (PageSummary, error)
}

// Client is a convenience union for sources that serve every demo payload.
type Client interface {
	CommitLister
	RepositorySearcher
	UserLister
	PostLister
	SummaryFetcher
}

// Commit is the subset of a GitHub commit the dashboard reads.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

// CommitDetail holds the git metadata of a commit.
type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// CommitAuthor identifies who authored a commit and when.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Repository is the subset of a GitHub repository search hit the dashboard reads.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Stars    int    `json:"stargazers_count"`
	HTMLURL  string `json:"html_url"`
}

// User is a placeholder directory entry.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Post is a placeholder post.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PageSummary is an encyclopedia page summary.
type PageSummary struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Extract     string      `json:"extract"`
	ContentURLs ContentURLs `json:"content_urls"`
}

// ContentURLs lists the canonical page links of a summary.
type ContentURLs struct {
	Desktop PageLink `json:"desktop"`
}

// PageLink points at a rendered page.
type PageLink struct {
	Page string `json:"page"`
}
