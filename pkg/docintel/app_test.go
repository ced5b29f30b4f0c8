package docintel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/dashboard/httpapi"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
	"github.com/goliatone/go-docintel/components/poll/polltest"
	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/insights"
	"github.com/goliatone/go-docintel/pkg/metrics"
	"github.com/goliatone/go-docintel/pkg/sources"
)

var start = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func offlineConfig() *config.Config {
	cfg := config.Default()
	cfg.Sources.Offline = true
	cfg.Metrics.Runtime = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, client sources.Client) (*App, *polltest.Clock) {
	t.Helper()
	clock := polltest.NewClock(start)
	opts := []Option{
		WithClock(clock),
		WithGenerator(&insights.Sequence{Ints: []int{1}, Floats: []float64{0.5}}),
		WithChartRenderer(dashboard.NewChartRenderer(dashboard.WithChartCache(nil))),
		WithRecorder(metrics.NewRecorder(false)),
	}
	if client != nil {
		opts = append(opts, WithSourceClient(client))
	}
	app, err := New(cfg, opts...)
	require.NoError(t, err)
	return app, clock
}

func startApp(t *testing.T, app *App) {
	t.Helper()
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(app.Stop)
	require.Eventually(t, func() bool {
		statuses, err := app.Executor().Feeds(context.Background(), queries.FeedStatusInput{})
		if err != nil {
			return false
		}
		for _, s := range statuses {
			if s.Status.Updates == 0 {
				return false
			}
		}
		return len(statuses) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAppServesPolledWidgets(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	startApp(t, app)
	ctx := context.Background()

	statuses, err := app.Executor().Feeds(ctx, queries.FeedStatusInput{})
	require.NoError(t, err)
	assert.Len(t, statuses, len(config.FeedNames))
	for _, s := range statuses {
		assert.True(t, s.Healthy, s.Code)
	}

	tab, err := app.Executor().Tab(ctx, queries.TabInput{TabCode: dashboard.TabHotSwap})
	require.NoError(t, err)
	require.Len(t, tab.Widgets, 1)
	widget := tab.Widgets[0]
	assert.False(t, widget.Pending)
	deployments, ok := widget.Data["deployments"].([]insights.Deployment)
	require.True(t, ok, "unexpected data %#v", widget.Data)
	assert.Len(t, deployments, 6)
	assert.Contains(t, widget.Data, "chart_html")
	assert.Contains(t, widget.Data, "active")

	layout, err := app.Executor().Layout(ctx, dashboard.ViewerContext{})
	require.NoError(t, err)
	require.Len(t, layout.Tabs, 8)
	var knowledge dashboard.TabPayload
	for _, tab := range layout.Tabs {
		if tab.Code == dashboard.TabKnowledge {
			knowledge = tab
		}
	}
	require.Len(t, knowledge.Widgets, 1)
	nodes, ok := knowledge.Widgets[0].Data["nodes"].([]insights.Node)
	require.True(t, ok)
	assert.Len(t, nodes, 8)
}

func TestAppToggleModelBroadcasts(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	startApp(t, app)
	events, cancel := app.Broadcast().Subscribe(dashboard.WidgetAIModels)
	defer cancel()

	require.NoError(t, app.Executor().ToggleModel(context.Background(), commands.ToggleModelInput{ModelID: "1"}))

	select {
	case event := <-events:
		assert.Equal(t, dashboard.ReasonMutate, event.Reason)
		tab, err := app.Executor().Tab(context.Background(), queries.TabInput{TabCode: dashboard.TabModels})
		require.NoError(t, err)
		require.Len(t, tab.Widgets, 1)
		assert.Equal(t, tab.Widgets[0].ID, event.Instance.ID)
		assert.Equal(t, dashboard.TabModels, event.AreaCode)
		models, ok := event.Data["models"].([]insights.Model)
		require.True(t, ok)
		assert.Equal(t, insights.ModelInactive, models[0].Status)
	case <-time.After(2 * time.Second):
		t.Fatal("expected toggle broadcast")
	}

	fleet, _, ok := app.models.Latest()
	require.True(t, ok)
	assert.Equal(t, insights.ModelInactive, fleet.Models[0].Status)

	err := app.Executor().ToggleModel(context.Background(), commands.ToggleModelInput{ModelID: "404"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, commands.ErrNotFound))
	assert.True(t, errors.Is(err, insights.ErrModelNotFound))
	assert.Equal(t, 404, httpapi.StatusCode(err))
}

func TestAppInitiateDeployment(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	startApp(t, app)

	err := app.Executor().InitiateDeployment(context.Background(), commands.InitiateDeploymentInput{
		ID:        "abc12345",
		Component: "Vector DB",
		Version:   "v3.0.0",
	})
	require.NoError(t, err)

	board, _, ok := app.deployments.Latest()
	require.True(t, ok)
	require.Len(t, board.Deployments, 7)
	assert.Equal(t, "abc12345", board.Deployments[0].ID)
	assert.Equal(t, insights.StatusDeploying, board.Deployments[0].Status)
	assert.Equal(t, start, board.Deployments[0].Timestamp)
	assert.Equal(t, "abc12345", board.ActiveID)

	err = app.Executor().InitiateDeployment(context.Background(), commands.InitiateDeploymentInput{Component: "x", Version: "latest"})
	assert.Equal(t, 400, httpapi.StatusCode(err))
}

func TestAppStartUpload(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	startApp(t, app)
	ctx := context.Background()
	events, cancel := app.Broadcast().Subscribe(dashboard.WidgetUploadQueue)
	defer cancel()

	require.NoError(t, app.Executor().StartUpload(ctx, commands.StartUploadInput{ID: "up-1", Name: "report.pdf", Type: "application/pdf", Size: 2048}))

	tab, err := app.Executor().Tab(ctx, queries.TabInput{TabCode: dashboard.TabUpload})
	require.NoError(t, err)
	require.Len(t, tab.Widgets, 2)
	queueWidget := tab.Widgets[1]
	assert.Equal(t, dashboard.WidgetUploadQueue, queueWidget.Definition)
	uploads, ok := queueWidget.Data["uploads"].([]insights.Upload)
	require.True(t, ok)
	require.Len(t, uploads, 1)
	assert.Equal(t, "2 KB", uploads[0].Size)

	select {
	case event := <-events:
		assert.Equal(t, dashboard.ReasonMutate, event.Reason)
		assert.Equal(t, queueWidget.ID, event.Instance.ID)
		assert.Equal(t, dashboard.TabUpload, event.AreaCode)
	case <-time.After(2 * time.Second):
		t.Fatal("expected upload broadcast")
	}

	err = app.Executor().StartUpload(ctx, commands.StartUploadInput{ID: "up-1", Name: "again.pdf"})
	assert.ErrorIs(t, err, commands.ErrInvalidInput)
	err = app.Executor().StartUpload(ctx, commands.StartUploadInput{Name: "huge.zip", Size: commands.MaxUploadBytes + 1})
	assert.Equal(t, 400, httpapi.StatusCode(err))
}

func TestAppMutationsBeforeFirstPoll(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	err := app.ToggleModel(context.Background(), "1")
	assert.ErrorIs(t, err, dashboard.ErrFeedPending)
	assert.Equal(t, 503, httpapi.StatusCode(err))
}

func TestAppNextPollReplacesMutation(t *testing.T) {
	app, clock := newTestApp(t, offlineConfig(), nil)
	startApp(t, app)
	require.NoError(t, app.ToggleModel(context.Background(), "1"))

	before := app.models.Status().Updates
	clock.Tick()
	require.Eventually(t, func() bool {
		return app.models.Status().Updates > before
	}, 2*time.Second, 10*time.Millisecond)

	fleet, _, _ := app.models.Latest()
	assert.Equal(t, insights.ModelActive, fleet.Models[0].Status)
}

func TestAppDisabledFeed(t *testing.T) {
	cfg := offlineConfig()
	cfg.Feeds[config.FeedModels] = config.FeedConfig{Enabled: false}
	app, _ := newTestApp(t, cfg, nil)
	startApp(t, app)

	err := app.ToggleModel(context.Background(), "1")
	assert.ErrorIs(t, err, dashboard.ErrFeedNotFound)

	statuses, err := app.Executor().Feeds(context.Background(), queries.FeedStatusInput{})
	require.NoError(t, err)
	assert.Len(t, statuses, len(config.FeedNames)-1)

	_, ok := app.Registry().ProviderMetadata(dashboard.WidgetAIModels)
	assert.False(t, ok)
}

func TestNewIgnoresSettingsOfDisabledFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docintel.yaml")
	body := "sources:\n  offline: true\nfeeds:\n  models:\n    enabled: false\n    overlap: queue\n  topic:\n    enabled: false\n    interval: 0s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Metrics.Runtime = false

	app, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, app.models)
	_, ok := app.Registry().Provider(dashboard.WidgetTopicSummary)
	assert.False(t, ok)
	_, ok = app.Registry().Provider(dashboard.WidgetDeployments)
	assert.True(t, ok)
}

func TestAppStopWithoutStart(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	app.Stop()
	events, cancel := app.Broadcast().Subscribe()
	defer cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestAppReportsFailingSource(t *testing.T) {
	client := sources.NewMockClient(sources.DemoData())
	client.FailWith(errors.New("rate limited"))
	app, _ := newTestApp(t, offlineConfig(), client)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(app.Stop)

	require.Eventually(t, func() bool {
		status, err := app.Executor().Feeds(context.Background(), queries.FeedStatusInput{Code: dashboard.WidgetDeployments})
		return err == nil && len(status) == 1 && status[0].Status.Failures > 0
	}, 2*time.Second, 10*time.Millisecond)

	tab, err := app.Executor().Tab(context.Background(), queries.TabInput{TabCode: dashboard.TabHotSwap})
	require.NoError(t, err)
	require.Len(t, tab.Widgets, 1)
	assert.True(t, tab.Widgets[0].Pending)
}

func TestAppManifest(t *testing.T) {
	app, _ := newTestApp(t, offlineConfig(), nil)
	doc := app.Manifest()
	require.NoError(t, doc.Validate())
	assert.Len(t, doc.Areas, 8)
	assert.Len(t, doc.Widgets, len(dashboard.DefaultWidgetDefinitions()))

	meta, ok := app.Registry().ProviderMetadata(dashboard.WidgetDeployments)
	require.True(t, ok)
	assert.Equal(t, "10s", meta.Interval)
	assert.Equal(t, "github.commits", meta.Source)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := offlineConfig()
	cfg.Feeds[config.FeedTopic] = config.FeedConfig{Enabled: true, Interval: 0, Overlap: "skip"}
	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewSourceClient(t *testing.T) {
	offline, err := NewSourceClient(config.SourcesConfig{Offline: true})
	require.NoError(t, err)
	assert.IsType(t, &sources.MockClient{}, offline)

	online, err := NewSourceClient(config.Default().Sources)
	require.NoError(t, err)
	assert.IsType(t, remoteClient{}, online)

	broken := config.Default().Sources
	broken.Placeholder.BaseURL = ""
	_, err = NewSourceClient(broken)
	require.Error(t, err)
}

func TestWidgetCode(t *testing.T) {
	code, ok := WidgetCode(config.FeedDeployments)
	require.True(t, ok)
	assert.Equal(t, dashboard.WidgetDeployments, code)

	code, ok = WidgetCode(dashboard.WidgetTopicSummary)
	require.True(t, ok)
	assert.Equal(t, dashboard.WidgetTopicSummary, code)

	_, ok = WidgetCode("weather")
	assert.False(t, ok)
}
