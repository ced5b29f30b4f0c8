package httpapi

import (
	"context"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
)

var errNotConfigured = errors.New("httpapi: operation not configured")

// Executor is the transport-neutral surface the HTTP and go-router layers call into.
type Executor interface {
	Refresh(ctx context.Context, input commands.RefreshWidgetInput) error
	ToggleModel(ctx context.Context, input commands.ToggleModelInput) error
	InitiateDeployment(ctx context.Context, input commands.InitiateDeploymentInput) error
	StartUpload(ctx context.Context, input commands.StartUploadInput) error
	SavePreferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error
	Layout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutPayload, error)
	Tab(ctx context.Context, input queries.TabInput) (dashboard.TabPayload, error)
	Feeds(ctx context.Context, input queries.FeedStatusInput) ([]dashboard.FeedStatus, error)
}

// CommandExecutor dispatches to go-command commanders and queriers. Nil entries report errNotConfigured.
type CommandExecutor struct {
	RefreshCommand     gocommand.Commander[commands.RefreshWidgetInput]
	ToggleCommand      gocommand.Commander[commands.ToggleModelInput]
	DeploymentCommand  gocommand.Commander[commands.InitiateDeploymentInput]
	UploadCommand      gocommand.Commander[commands.StartUploadInput]
	PreferencesCommand gocommand.Commander[commands.SaveLayoutPreferencesInput]
	LayoutQuery        gocommand.Querier[dashboard.ViewerContext, dashboard.LayoutPayload]
	TabQuery           gocommand.Querier[queries.TabInput, dashboard.TabPayload]
	FeedQuery          gocommand.Querier[queries.FeedStatusInput, []dashboard.FeedStatus]
}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshWidgetInput) error {
	if e.RefreshCommand == nil {
		return errNotConfigured
	}
	return e.RefreshCommand.Execute(ctx, input)
}

func (e *CommandExecutor) ToggleModel(ctx context.Context, input commands.ToggleModelInput) error {
	if e.ToggleCommand == nil {
		return errNotConfigured
	}
	return e.ToggleCommand.Execute(ctx, input)
}

func (e *CommandExecutor) InitiateDeployment(ctx context.Context, input commands.InitiateDeploymentInput) error {
	if e.DeploymentCommand == nil {
		return errNotConfigured
	}
	return e.DeploymentCommand.Execute(ctx, input)
}

func (e *CommandExecutor) StartUpload(ctx context.Context, input commands.StartUploadInput) error {
	if e.UploadCommand == nil {
		return errNotConfigured
	}
	return e.UploadCommand.Execute(ctx, input)
}

func (e *CommandExecutor) SavePreferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error {
	if e.PreferencesCommand == nil {
		return errNotConfigured
	}
	return e.PreferencesCommand.Execute(ctx, input)
}

func (e *CommandExecutor) Layout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutPayload, error) {
	if e.LayoutQuery == nil {
		return dashboard.LayoutPayload{}, errNotConfigured
	}
	return e.LayoutQuery.Query(ctx, viewer)
}

func (e *CommandExecutor) Tab(ctx context.Context, input queries.TabInput) (dashboard.TabPayload, error) {
	if e.TabQuery == nil {
		return dashboard.TabPayload{}, errNotConfigured
	}
	return e.TabQuery.Query(ctx, input)
}

func (e *CommandExecutor) Feeds(ctx context.Context, input queries.FeedStatusInput) ([]dashboard.FeedStatus, error) {
	if e.FeedQuery == nil {
		return nil, errNotConfigured
	}
	return e.FeedQuery.Query(ctx, input)
}

// StatusCode maps command and service errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, commands.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrAreaNotFound),
		errors.Is(err, dashboard.ErrFeedNotFound),
		errors.Is(err, commands.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrFeedPending), errors.Is(err, errNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
