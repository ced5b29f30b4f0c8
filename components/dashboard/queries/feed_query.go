package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-docintel/components/dashboard"
)

// FeedStatusInput selects a single feed by widget code; empty means all feeds.
type FeedStatusInput struct {
	Code string
}

type feedReporter interface {
	FeedStatuses() []dashboard.FeedStatus
	FeedStatus(code string) (dashboard.FeedStatus, error)
}

// FeedStatusQuery reports poll health for the dashboard feeds.
type FeedStatusQuery struct {
	service feedReporter
}

// NewFeedStatusQuery builds the query.
func NewFeedStatusQuery(service feedReporter) *FeedStatusQuery {
	return &FeedStatusQuery{service: service}
}

var _ gocommand.Querier[FeedStatusInput, []dashboard.FeedStatus] = (*FeedStatusQuery)(nil)

func (q *FeedStatusQuery) Query(_ context.Context, input FeedStatusInput) ([]dashboard.FeedStatus, error) {
	if input.Code == "" {
		return q.service.FeedStatuses(), nil
	}
	status, err := q.service.FeedStatus(input.Code)
	if err != nil {
		return nil, err
	}
	return []dashboard.FeedStatus{status}, nil
}
