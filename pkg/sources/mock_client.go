package sources

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockData seeds deterministic source payloads for tests or offline demos.
type MockData struct {
	Commits      []Commit
	Repositories []Repository
	Users        []User
	Posts        []Post
	Summary      PageSummary
}

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	mu   sync.RWMutex
	data MockData
	err  error
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data}
}

// SetData replaces the fixtures served by subsequent calls.
func (c *MockClient) SetData(data MockData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
}

// FailWith makes every call return err until it is reset with nil.
func (c *MockClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// ListCommits returns the configured commits, ignoring owner and repo.
func (c *MockClient) ListCommits(_ context.Context, _, _ string, perPage int) ([]Commit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return limit(append([]Commit(nil), c.data.Commits...), perPage), nil
}

// SearchRepositories returns the configured repositories, ignoring the query.
func (c *MockClient) SearchRepositories(_ context.Context, _ string, perPage int) ([]Repository, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return limit(append([]Repository(nil), c.data.Repositories...), perPage), nil
}

// ListUsers returns the configured users.
func (c *MockClient) ListUsers(context.Context) ([]User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]User(nil), c.data.Users...), nil
}

// ListPosts returns up to n configured posts.
func (c *MockClient) ListPosts(_ context.Context, n int) ([]Post, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return limit(append([]Post(nil), c.data.Posts...), n), nil
}

// PageSummary returns the configured summary with the requested title when it has none.
func (c *MockClient) PageSummary(_ context.Context, title string) (PageSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return PageSummary{}, c.err
	}
	summary := c.data.Summary
	if summary.Title == "" {
		summary.Title = title
	}
	return summary, nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// DemoData returns fixtures shaped like the public demo endpoints.
func DemoData() MockData {
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	data := MockData{
		Summary: PageSummary{
			Title:       "Artificial intelligence",
			Description: "Intelligence of machines",
			Extract:     "Artificial intelligence is the capability of computational systems to perform tasks typically associated with human intelligence.",
			ContentURLs: ContentURLs{Desktop: PageLink{Page: "https://en.wikipedia.org/wiki/Artificial_intelligence"}},
		},
	}
	for i := 0; i < 6; i++ {
		data.Commits = append(data.Commits, Commit{
			SHA: fmt.Sprintf("%02d4f9c1e7ab2d3f0", i),
			Commit: CommitDetail{
				Message: fmt.Sprintf("Merge pull request #%d", 1000+i),
				Author:  CommitAuthor{Name: "octocat", Date: base.Add(-time.Duration(i) * time.Hour)},
			},
		})
	}
	repos := []string{"transformers", "langchain", "llama.cpp", "stable-diffusion", "whisper", "autogpt", "pytorch", "tensorflow"}
	for i, name := range repos {
		data.Repositories = append(data.Repositories, Repository{
			ID:    int64(100 + i),
			Name:  name,
			Stars: 150000 - i*12000,
		})
	}
	users := []string{"Leanne Graham", "Ervin Howell", "Clementine Bauch", "Patricia Lebsack", "Chelsey Dietrich", "Dennis Schulist", "Kurtis Weissnat", "Nicholas Runolfsdottir", "Glenna Reichert", "Clementina DuBuque"}
	for i, name := range users {
		data.Users = append(data.Users, User{ID: i + 1, Name: name, Email: fmt.Sprintf("user%d@example.com", i+1)})
	}
	for i := 0; i < 10; i++ {
		data.Posts = append(data.Posts, Post{
			ID:     i + 1,
			UserID: i%len(users) + 1,
			Title:  fmt.Sprintf("sunt aut facere repellat provident occaecati excepturi optio reprehenderit %d", i+1),
		})
	}
	return data
}
