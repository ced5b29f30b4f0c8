package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// EncyclopediaClient reads page summaries from a REST summary endpoint.
type EncyclopediaClient struct {
	http *HTTPClient
}

var _ SummaryFetcher = (*EncyclopediaClient)(nil)

// NewEncyclopediaClient builds an encyclopedia client.
func NewEncyclopediaClient(cfg HTTPConfig) (*EncyclopediaClient, error) {
	client, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &EncyclopediaClient{http: client}, nil
}

// PageSummary fetches the summary of title. Spaces become underscores as page titles expect.
func (c *EncyclopediaClient) PageSummary(ctx context.Context, title string) (PageSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return PageSummary{}, fmt.Errorf("sources: page title is required")
	}
	var summary PageSummary
	path := "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := c.http.get(ctx, path, nil, &summary); err != nil {
		return PageSummary{}, err
	}
	return summary, nil
}
