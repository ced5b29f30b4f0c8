package insights

import (
	"errors"

	"github.com/goliatone/go-docintel/pkg/sources"
)

var errEmptySummary = errors.New("insights: page summary has no title")

// Topic is the featured topic shown next to the query engine.
type Topic struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Extract     string `json:"extract"`
	URL         string `json:"url,omitempty"`
}

// Topic reshapes an encyclopedia summary.
func (s *Synthesizer) Topic(page sources.PageSummary) (Topic, error) {
	if page.Title == "" {
		return Topic{}, errEmptySummary
	}
	return Topic{
		Title:       page.Title,
		Description: page.Description,
		Extract:     page.Extract,
		URL:         page.ContentURLs.Desktop.Page,
	}, nil
}
