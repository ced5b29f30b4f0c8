package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/goliatone/go-docintel/components/poll"
)

var (
	// ErrAreaNotFound is returned for unknown tab codes.
	ErrAreaNotFound = errors.New("dashboard: area not found")

	errInvalidArea       = errors.New("dashboard: area code is required")
	errInvalidDefinition = errors.New("dashboard: definition id is required")
	errMissingViewer     = errors.New("dashboard: viewer context missing user id")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	WidgetStore     WidgetStore
	Authorizer      Authorizer
	PreferenceStore PreferenceStore
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Areas           []WidgetAreaDefinition
	Feeds           []FeedRunner
	Logger          *slog.Logger
	Observer        poll.Observer
	Clock           poll.Clock
}

// Service resolves tabs into widget payloads and runs the feeds behind them.
type Service struct {
	opts  Options
	feeds map[string]FeedRunner
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.WidgetStore == nil {
		opts.WidgetStore = NewMemoryWidgetStore()
	}
	if opts.Authorizer == nil {
		opts.Authorizer = allowAllAuthorizer{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if len(opts.Areas) == 0 {
		opts.Areas = DefaultAreaDefinitions()
	}
	feeds := make(map[string]FeedRunner, len(opts.Feeds))
	for _, feed := range opts.Feeds {
		if feed != nil {
			feeds[feed.Code()] = feed
		}
	}
	return &Service{opts: opts, feeds: feeds}
}

// AddWidgetRequest captures the data required to place a widget on a tab.
type AddWidgetRequest struct {
	DefinitionID  string         `json:"definition_id" yaml:"definition_id"`
	AreaCode      string         `json:"area_code" yaml:"area_code"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Position      *int           `json:"position,omitempty" yaml:"position,omitempty"`
	Roles         []string       `json:"roles,omitempty" yaml:"roles,omitempty"`
	UserID        string         `json:"user_id,omitempty" yaml:"user_id,omitempty"`
}

// AddWidget validates the configuration, creates a widget instance and places it on a tab.
func (s *Service) AddWidget(ctx context.Context, req AddWidgetRequest) error {
	if req.AreaCode == "" {
		return errInvalidArea
	}
	if req.DefinitionID == "" {
		return errInvalidDefinition
	}
	def, ok := s.opts.Providers.Definition(req.DefinitionID)
	if !ok {
		return fmt.Errorf("dashboard: widget definition %s not found", req.DefinitionID)
	}
	if err := s.opts.ConfigValidator.Validate(def, req.Configuration); err != nil {
		return err
	}
	store := s.opts.WidgetStore
	instance, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{
		DefinitionID:  req.DefinitionID,
		Configuration: ApplySchemaDefaults(def, req.Configuration),
		Roles:         req.Roles,
		Metadata: map[string]any{
			"user_id": req.UserID,
		},
	})
	if err != nil {
		return err
	}
	if err := store.AssignInstance(ctx, AssignWidgetInput{
		AreaCode:   req.AreaCode,
		InstanceID: instance.ID,
		Position:   req.Position,
	}); err != nil {
		return err
	}
	instance.AreaCode = req.AreaCode
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: req.AreaCode,
		Instance: instance,
		Reason:   ReasonAdd,
		At:       clockNow(s.opts.Clock),
	}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"area_code":     req.AreaCode,
		"definition_id": req.DefinitionID,
	})
	return nil
}

// Start launches every feed. Feeds that fail to start are reported together;
// the others keep running.
func (s *Service) Start(ctx context.Context) error {
	rt := FeedRuntime{
		Hook:      s.opts.RefreshHook,
		Telemetry: s.opts.Telemetry,
		Logger:    s.opts.Logger,
		Observer:  s.opts.Observer,
		Clock:     s.opts.Clock,
		Instances: s.PlacedInstances,
	}
	var startErr error
	started := 0
	for _, code := range s.feedCodes() {
		if err := s.feeds[code].Start(ctx, rt); err != nil {
			startErr = errors.Join(startErr, err)
			continue
		}
		started++
	}
	s.recordTelemetry(ctx, "dashboard.feeds.start", map[string]any{
		"started": started,
		"total":   len(s.feeds),
	})
	if s.opts.Logger != nil {
		s.opts.Logger.Info("dashboard feeds started", slog.Int("started", started), slog.Int("total", len(s.feeds)))
	}
	return startErr
}

// PlacedInstances returns every instance of a definition placed on a tab that
// requires no roles, in tab order. Role-restricted instances are skipped since
// pushed events are not filtered per viewer.
func (s *Service) PlacedInstances(ctx context.Context, definition string) ([]WidgetInstance, error) {
	var out []WidgetInstance
	for _, area := range s.opts.Areas {
		resolved, err := s.opts.WidgetStore.ResolveArea(ctx, ResolveAreaInput{AreaCode: area.Code})
		if errors.Is(err, ErrAreaNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, inst := range resolved.Widgets {
			if inst.DefinitionID == definition {
				out = append(out, inst)
			}
		}
	}
	return out, nil
}

// Stop cancels every feed.
func (s *Service) Stop() {
	for _, feed := range s.feeds {
		feed.Stop()
	}
}

// Feed returns the feed registered for a widget code.
func (s *Service) Feed(code string) (FeedRunner, bool) {
	feed, ok := s.feeds[code]
	return feed, ok
}

// FeedStatus summarizes one feed for operators.
type FeedStatus struct {
	Code     string      `json:"code"`
	AreaCode string      `json:"area"`
	Interval string      `json:"interval"`
	Healthy  bool        `json:"healthy"`
	Stale    bool        `json:"stale"`
	Status   poll.Status `json:"status"`
}

// FeedStatuses reports every feed ordered by code.
func (s *Service) FeedStatuses() []FeedStatus {
	out := make([]FeedStatus, 0, len(s.feeds))
	for _, code := range s.feedCodes() {
		out = append(out, s.feedStatus(s.feeds[code]))
	}
	return out
}

// FeedStatus reports a single feed.
func (s *Service) FeedStatus(code string) (FeedStatus, error) {
	feed, ok := s.feeds[code]
	if !ok {
		return FeedStatus{}, fmt.Errorf("%w: %s", ErrFeedNotFound, code)
	}
	return s.feedStatus(feed), nil
}

func (s *Service) feedStatus(feed FeedRunner) FeedStatus {
	status := feed.Status()
	return FeedStatus{
		Code:     feed.Code(),
		AreaCode: feed.AreaCode(),
		Interval: feed.Interval().String(),
		Healthy:  status.Healthy(),
		Stale:    status.Stale(clockNow(s.opts.Clock), feed.Interval()),
		Status:   status,
	}
}

func (s *Service) feedCodes() []string {
	codes := make([]string, 0, len(s.feeds))
	for code := range s.feeds {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Areas returns the configured tabs in display order.
func (s *Service) Areas() []WidgetAreaDefinition {
	out := make([]WidgetAreaDefinition, len(s.opts.Areas))
	copy(out, s.opts.Areas)
	return out
}

// Area looks up a tab definition.
func (s *Service) Area(code string) (WidgetAreaDefinition, bool) {
	for _, area := range s.opts.Areas {
		if area.Code == code {
			return area, true
		}
	}
	return WidgetAreaDefinition{}, false
}

// Definition looks up a widget definition.
func (s *Service) Definition(code string) (WidgetDefinition, bool) {
	return s.opts.Providers.Definition(code)
}

// ConfigureLayout resolves widgets for each tab respecting preferences + auth.
func (s *Service) ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	layout := Layout{
		Areas: make(map[string][]WidgetInstance, len(s.opts.Areas)),
		Order: applyTabOrder(s.areaCodes(), overrides.TabOrder),
	}
	for _, area := range layout.Order {
		widgets, err := s.resolveWidgets(ctx, viewer, area, overrides)
		if err != nil {
			return Layout{}, err
		}
		layout.Areas[area] = widgets
	}
	s.recordTelemetry(ctx, "dashboard.layout.resolve", map[string]any{
		"viewer": viewer.UserID,
	})
	return layout, nil
}

// ResolveArea retrieves a single tab for the viewer.
func (s *Service) ResolveArea(ctx context.Context, viewer ViewerContext, areaCode string) (ResolvedArea, error) {
	if areaCode == "" {
		return ResolvedArea{}, errInvalidArea
	}
	if _, ok := s.Area(areaCode); !ok {
		return ResolvedArea{}, fmt.Errorf("%w: %s", ErrAreaNotFound, areaCode)
	}
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return ResolvedArea{}, err
	}
	widgets, err := s.resolveWidgets(ctx, viewer, areaCode, overrides)
	if err != nil {
		return ResolvedArea{}, err
	}
	s.recordTelemetry(ctx, "dashboard.area.resolve", map[string]any{
		"viewer":    viewer.UserID,
		"area_code": areaCode,
	})
	return ResolvedArea{AreaCode: areaCode, Widgets: widgets}, nil
}

func (s *Service) resolveWidgets(ctx context.Context, viewer ViewerContext, area string, overrides LayoutOverrides) ([]WidgetInstance, error) {
	resolved, err := s.opts.WidgetStore.ResolveArea(ctx, ResolveAreaInput{
		AreaCode: area,
		Audience: viewer.Roles,
	})
	if errors.Is(err, ErrAreaNotFound) {
		// Configured but never seeded.
		return []WidgetInstance{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range resolved.Widgets {
		resolved.Widgets[i].AreaCode = area
	}
	filtered := s.filterAuthorized(ctx, viewer, resolved.Widgets)
	ordered := applyOrderOverride(filtered, overrides.AreaOrder[area])
	visible := applyHiddenFilter(ordered, overrides.HiddenWidgets)
	return s.attachProviderData(ctx, viewer, visible), nil
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if event.At.IsZero() {
		event.At = clockNow(s.opts.Clock)
	}
	if event.Data == nil && event.Instance.DefinitionID != "" {
		if provider, ok := s.opts.Providers.Provider(event.Instance.DefinitionID); ok {
			if data, err := provider.Fetch(ctx, WidgetContext{Instance: event.Instance}); err == nil {
				event.Data = data
			}
		}
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"area_code": event.AreaCode,
		"widget_id": event.Instance.ID,
		"reason":    event.Reason,
	})
	return nil
}

// SavePreferences persists per-viewer layout overrides.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return errMissingViewer
	}
	for _, code := range overrides.TabOrder {
		if _, ok := s.Area(code); !ok {
			return fmt.Errorf("%w: %s", ErrAreaNotFound, code)
		}
	}
	normalizeOverrides(&overrides)
	if err := s.opts.PreferenceStore.SaveLayoutOverrides(ctx, viewer, overrides); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.preferences.save", map[string]any{"viewer": viewer.UserID})
	return nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) areaCodes() []string {
	codes := make([]string, len(s.opts.Areas))
	for i, area := range s.opts.Areas {
		codes[i] = area.Code
	}
	return codes
}

func (s *Service) filterAuthorized(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	if len(widgets) == 0 {
		return widgets
	}
	filtered := make([]WidgetInstance, 0, len(widgets))
	for _, w := range widgets {
		if s.opts.Authorizer.CanViewWidget(ctx, viewer, w) {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	for i, inst := range widgets {
		provider, ok := s.opts.Providers.Provider(inst.DefinitionID)
		if !ok || provider == nil {
			continue
		}
		if widgets[i].Metadata == nil {
			widgets[i].Metadata = map[string]any{}
		}
		data, err := provider.Fetch(ctx, WidgetContext{
			Instance: inst,
			Viewer:   viewer,
		})
		if errors.Is(err, ErrFeedPending) {
			widgets[i].Metadata["pending"] = true
			continue
		}
		if err != nil {
			s.recordTelemetry(ctx, "dashboard.widget.provider_error", map[string]any{
				"definition_id": inst.DefinitionID,
				"error":         err.Error(),
			})
			continue
		}
		widgets[i].Metadata["data"] = data
	}
	return widgets
}

func normalizeOverrides(overrides *LayoutOverrides) {
	if overrides.AreaOrder == nil {
		overrides.AreaOrder = map[string][]string{}
	}
	if overrides.HiddenWidgets == nil {
		overrides.HiddenWidgets = map[string]bool{}
	}
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanViewWidget(context.Context, ViewerContext, WidgetInstance) bool {
	return true
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
