package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-docintel/components/dashboard"
)

type layoutRenderer interface {
	LayoutPayload(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutPayload, error)
}

// LayoutQuery executes read-only layout resolution.
type LayoutQuery struct {
	controller layoutRenderer
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(controller layoutRenderer) *LayoutQuery {
	return &LayoutQuery{controller: controller}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.LayoutPayload] = (*LayoutQuery)(nil)

// Query resolves every tab for the viewer.
func (q *LayoutQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutPayload, error) {
	return q.controller.LayoutPayload(ctx, viewer)
}
