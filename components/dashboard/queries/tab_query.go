package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-docintel/components/dashboard"
)

// TabInput identifies a tab request for a viewer.
type TabInput struct {
	Viewer  dashboard.ViewerContext
	TabCode string
}

type tabRenderer interface {
	TabPayload(ctx context.Context, viewer dashboard.ViewerContext, code string) (dashboard.TabPayload, error)
}

// TabQuery fetches the widgets of one tab.
type TabQuery struct {
	controller tabRenderer
}

// NewTabQuery builds the query.
func NewTabQuery(controller tabRenderer) *TabQuery {
	return &TabQuery{controller: controller}
}

var _ gocommand.Querier[TabInput, dashboard.TabPayload] = (*TabQuery)(nil)

func (q *TabQuery) Query(ctx context.Context, input TabInput) (dashboard.TabPayload, error) {
	if input.TabCode == "" {
		return dashboard.TabPayload{}, errors.New("tab query requires tab code")
	}
	return q.controller.TabPayload(ctx, input.Viewer, input.TabCode)
}
