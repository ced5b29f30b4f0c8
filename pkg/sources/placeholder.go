package sources

import (
	"context"
	"net/url"
	"strconv"
)

// PlaceholderClient reads users and posts from a JSON placeholder API.
type PlaceholderClient struct {
	http *HTTPClient
}

var (
	_ UserLister = (*PlaceholderClient)(nil)
	_ PostLister = (*PlaceholderClient)(nil)
)

// NewPlaceholderClient builds a placeholder API client.
func NewPlaceholderClient(cfg HTTPConfig) (*PlaceholderClient, error) {
	client, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &PlaceholderClient{http: client}, nil
}

// ListUsers returns every user.
func (c *PlaceholderClient) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.http.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListPosts returns up to limit posts; zero means no limit.
func (c *PlaceholderClient) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("_limit", strconv.Itoa(limit))
	}
	var posts []Post
	if err := c.http.get(ctx, "/posts", query, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
