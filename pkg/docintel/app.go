// Package docintel assembles the document intelligence dashboard: sources,
// feeds, the dashboard service, transports and metrics.
package docintel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/dashboard/httpapi"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
	"github.com/goliatone/go-docintel/components/poll"
	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/insights"
	"github.com/goliatone/go-docintel/pkg/logging"
	"github.com/goliatone/go-docintel/pkg/metrics"
	"github.com/goliatone/go-docintel/pkg/sources"
)

// App holds the wired dashboard.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     poll.Clock
	registry  *dashboard.Registry
	store     *dashboard.MemoryWidgetStore
	service   *dashboard.Service
	broadcast *dashboard.BroadcastHook
	recorder  *metrics.Recorder
	telemetry dashboard.Telemetry
	executor  *httpapi.CommandExecutor
	seed      *commands.SeedDashboardCommand
	uploads   *UploadHub

	deployments *dashboard.Feed[[]sources.Commit, insights.DeploymentBoard]
	models      *dashboard.Feed[[]sources.User, insights.ModelFleet]
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	client    sources.Client
	clock     poll.Clock
	generator insights.Generator
	charts    *dashboard.ChartRenderer
	recorder  *metrics.Recorder
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSourceClient replaces the upstream client built from configuration.
func WithSourceClient(client sources.Client) Option {
	return func(o *options) { o.client = client }
}

// WithClock drives every feed from clock.
func WithClock(clock poll.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithGenerator replaces the seeded synthetic value generator.
func WithGenerator(gen insights.Generator) Option {
	return func(o *options) { o.generator = gen }
}

// WithChartRenderer replaces the shared chart renderer.
func WithChartRenderer(r *dashboard.ChartRenderer) Option {
	return func(o *options) { o.charts = r }
}

// WithRecorder replaces the metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// New validates cfg and wires the application. Nothing runs until Start.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.client == nil {
		client, err := NewSourceClient(cfg.Sources)
		if err != nil {
			return nil, err
		}
		o.client = client
	}
	if o.generator == nil {
		o.generator = insights.NewGenerator(cfg.Insights.Seed)
	}
	if o.charts == nil {
		o.charts = dashboard.NewChartRenderer()
	}
	if o.recorder == nil {
		o.recorder = metrics.NewRecorder(cfg.Metrics.Runtime)
	}

	app := &App{
		cfg:       cfg,
		logger:    o.logger,
		clock:     o.clock,
		registry:  dashboard.NewRegistry(),
		store:     dashboard.NewMemoryWidgetStore(),
		broadcast: dashboard.NewBroadcastHook(),
		recorder:  o.recorder,
	}
	app.telemetry = dashboard.MultiTelemetry(o.recorder, dashboard.LogTelemetry(o.logger))

	if cfg.Manifest != "" {
		if _, err := app.registry.LoadManifestFile(cfg.Manifest); err != nil {
			return nil, err
		}
	}

	feeds, err := app.buildFeeds(feedBuilder{
		cfg:    cfg,
		client: o.client,
		synth:  insights.NewSynthesizer(o.generator, insights.WithNow(app.now)),
		charts: o.charts,
	})
	if err != nil {
		return nil, err
	}
	if err := app.registry.LoadManifestDocument(feedManifest(cfg, app.registry)); err != nil {
		return nil, err
	}

	app.service = dashboard.NewService(dashboard.Options{
		WidgetStore: app.store,
		Providers:   app.registry,
		RefreshHook: app.broadcast,
		Telemetry:   app.telemetry,
		Feeds:       feeds,
		Logger:      o.logger,
		Observer:    o.recorder,
		Clock:       o.clock,
	})
	app.seed = commands.NewSeedDashboardCommand(app.store, app.registry, app.service, app.telemetry)

	app.uploads = newUploadHub(app.broadcast, o.clock, app.now, o.logger, o.recorder)
	app.uploads.instances = app.service.PlacedInstances
	if err := app.registry.RegisterProvider(dashboard.WidgetUploadQueue, app.uploads); err != nil {
		return nil, err
	}

	controller := dashboard.NewController(app.service)
	app.executor = &httpapi.CommandExecutor{
		RefreshCommand:     commands.NewRefreshWidgetCommand(app.service, app.telemetry),
		ToggleCommand:      commands.NewToggleModelCommand(app, app.telemetry),
		DeploymentCommand:  commands.NewInitiateDeploymentCommand(app, app.telemetry),
		UploadCommand:      commands.NewStartUploadCommand(app, app.telemetry),
		PreferencesCommand: commands.NewSaveLayoutPreferencesCommand(app.service, app.telemetry),
		LayoutQuery:        queries.NewLayoutQuery(controller),
		TabQuery:           queries.NewTabQuery(controller),
		FeedQuery:          queries.NewFeedStatusQuery(app.service),
	}
	return app, nil
}

func (a *App) buildFeeds(b feedBuilder) ([]dashboard.FeedRunner, error) {
	var runners []dashboard.FeedRunner
	add := func(runner dashboard.FeedRunner, err error) error {
		if err != nil {
			return err
		}
		if err := a.registry.RegisterFeed(runner); err != nil {
			return err
		}
		runners = append(runners, runner)
		return nil
	}
	enabled := func(name string) bool { return a.cfg.Feed(name).Enabled }

	// Disabled feeds are never built, so their settings are not validated.
	if enabled(config.FeedDeployments) {
		feed, err := b.deployments()
		if err := add(feed, err); err != nil {
			return nil, err
		}
		a.deployments = feed
	}
	if enabled(config.FeedModels) {
		feed, err := b.models()
		if err := add(feed, err); err != nil {
			return nil, err
		}
		a.models = feed
	}
	if enabled(config.FeedKnowledge) {
		if err := add(b.knowledge()); err != nil {
			return nil, err
		}
	}
	if enabled(config.FeedSecurity) {
		if err := add(b.security()); err != nil {
			return nil, err
		}
	}
	if enabled(config.FeedTopic) {
		if err := add(b.topic()); err != nil {
			return nil, err
		}
	}
	return runners, nil
}

// Start registers tabs and definitions, seeds the layout when configured and
// starts every enabled feed.
func (a *App) Start(ctx context.Context) error {
	if err := a.seed.Execute(ctx, commands.SeedDashboardInput{SeedLayout: a.cfg.Seed}); err != nil {
		return fmt.Errorf("docintel: bootstrap: %w", err)
	}
	if err := a.service.Start(ctx); err != nil {
		logging.Error(a.logger, "some feeds failed to start", err)
		return err
	}
	return nil
}

// Stop cancels the feeds and running uploads and disconnects stream subscribers.
func (a *App) Stop() {
	a.service.Stop()
	a.uploads.Close()
	a.broadcast.Close()
}

// ToggleModel flips a model between active and inactive and broadcasts the fleet.
func (a *App) ToggleModel(ctx context.Context, id string) error {
	if a.models == nil {
		return fmt.Errorf("%w: %s", dashboard.ErrFeedNotFound, dashboard.WidgetAIModels)
	}
	return a.models.Mutate(ctx, func(fleet insights.ModelFleet) (insights.ModelFleet, error) {
		next, err := fleet.Toggle(id)
		if errors.Is(err, insights.ErrModelNotFound) {
			return fleet, fmt.Errorf("%w: %w", commands.ErrNotFound, err)
		}
		return next, err
	})
}

// InitiateDeployment prepends a deploying rollout and broadcasts the board.
func (a *App) InitiateDeployment(ctx context.Context, id, component, version string) error {
	if a.deployments == nil {
		return fmt.Errorf("%w: %s", dashboard.ErrFeedNotFound, dashboard.WidgetDeployments)
	}
	at := a.now()
	return a.deployments.Mutate(ctx, func(board insights.DeploymentBoard) (insights.DeploymentBoard, error) {
		return board.Initiate(id, component, version, at), nil
	})
}

// StartUpload queues a document on the upload hub.
func (a *App) StartUpload(ctx context.Context, id, name, mime string, size int64) error {
	return a.uploads.Start(ctx, id, name, mime, size)
}

// Manifest describes the registered widgets and the starter layout.
func (a *App) Manifest() *dashboard.WidgetManifestDocument {
	return dashboard.BuildManifest(a.registry, "docintel", a.service.Areas(), dashboard.DefaultSeedWidgets())
}

func (a *App) Config() *config.Config              { return a.cfg }
func (a *App) Logger() *slog.Logger                { return a.logger }
func (a *App) Service() *dashboard.Service         { return a.service }
func (a *App) Broadcast() *dashboard.BroadcastHook { return a.broadcast }
func (a *App) Recorder() *metrics.Recorder         { return a.recorder }
func (a *App) Executor() *httpapi.CommandExecutor  { return a.executor }
func (a *App) Registry() *dashboard.Registry       { return a.registry }
func (a *App) Uploads() *UploadHub                 { return a.uploads }

func (a *App) now() time.Time {
	if a.clock != nil {
		return a.clock.Now()
	}
	return time.Now()
}
