package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-docintel/components/poll"
	"github.com/goliatone/go-docintel/components/poll/polltest"
)

func TestConfigureLayoutFiltersByAuthorizer(t *testing.T) {
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabAnalytics: {
				{ID: "w1", DefinitionID: WidgetSystemMetrics},
				{ID: "w2", DefinitionID: WidgetSystemMetrics},
			},
		},
	}
	auth := allowListAuthorizer{allowed: map[string]bool{"w2": true}}
	service := NewService(Options{
		WidgetStore:     store,
		Authorizer:      auth,
		PreferenceStore: NewInMemoryPreferenceStore(),
	})
	layout, err := service.ConfigureLayout(context.Background(), ViewerContext{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ConfigureLayout returned error: %v", err)
	}
	if len(layout.Areas[TabAnalytics]) != 1 || layout.Areas[TabAnalytics][0].ID != "w2" {
		t.Fatalf("expected filtered widget, got %#v", layout.Areas[TabAnalytics])
	}
}

func TestConfigureLayoutAppliesHiddenOverrides(t *testing.T) {
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabAnalytics: {
				{ID: "w1", DefinitionID: WidgetSystemMetrics},
				{ID: "w2", DefinitionID: WidgetPerformanceTrends},
			},
		},
	}
	prefs := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-3"}
	_ = prefs.SaveLayoutOverrides(context.Background(), viewer, LayoutOverrides{
		AreaOrder:     map[string][]string{TabAnalytics: {"w1", "w2"}},
		HiddenWidgets: map[string]bool{"w2": true},
	})
	service := NewService(Options{WidgetStore: store, PreferenceStore: prefs})
	layout, err := service.ConfigureLayout(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ConfigureLayout returned error: %v", err)
	}
	widgets := layout.Areas[TabAnalytics]
	if len(widgets) != 1 || widgets[0].ID != "w1" {
		t.Fatalf("expected hidden widget filtered, got %#v", widgets)
	}
}

func TestConfigureLayoutAppliesPreferenceOverrides(t *testing.T) {
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabAnalytics: {
				{ID: "w1", DefinitionID: WidgetSystemMetrics},
				{ID: "w2", DefinitionID: WidgetPerformanceTrends},
			},
		},
	}
	prefs := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-2"}
	_ = prefs.SaveLayoutOverrides(context.Background(), viewer, LayoutOverrides{
		TabOrder:  []string{TabSecurity, TabAnalytics},
		AreaOrder: map[string][]string{TabAnalytics: {"w2", "w1"}},
	})
	service := NewService(Options{WidgetStore: store, PreferenceStore: prefs})
	layout, err := service.ConfigureLayout(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ConfigureLayout returned error: %v", err)
	}
	order := layout.Areas[TabAnalytics]
	if len(order) != 2 || order[0].ID != "w2" {
		t.Fatalf("expected preference order applied, got %#v", order)
	}
	if len(layout.Order) != len(DefaultAreaDefinitions()) {
		t.Fatalf("expected every tab in order, got %v", layout.Order)
	}
	if layout.Order[0] != TabSecurity || layout.Order[1] != TabAnalytics || layout.Order[2] != TabSearch {
		t.Fatalf("expected tab order override, got %v", layout.Order)
	}
}

func TestConfigureLayoutAttachesProviderData(t *testing.T) {
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabAnalytics: {{ID: "w1", DefinitionID: WidgetSystemMetrics}},
		},
	}
	service := NewService(Options{WidgetStore: store})
	layout, err := service.ConfigureLayout(context.Background(), ViewerContext{})
	if err != nil {
		t.Fatalf("ConfigureLayout returned error: %v", err)
	}
	widget := layout.Areas[TabAnalytics][0]
	data, ok := widget.Metadata["data"].(WidgetData)
	if !ok {
		t.Fatalf("expected provider data, got %#v", widget.Metadata)
	}
	if metrics, _ := data["metrics"].([]map[string]any); len(metrics) != 4 {
		t.Fatalf("expected four system metrics, got %#v", data["metrics"])
	}
	if widget.AreaCode != TabAnalytics {
		t.Fatalf("expected area code to be set, got %q", widget.AreaCode)
	}
}

func TestConfigureLayoutMarksPendingFeeds(t *testing.T) {
	feed := newTestFeed(t, "docintel.widget.counter", TabHotSwap)
	reg := NewRegistry()
	if err := reg.RegisterDefinition(WidgetDefinition{Code: feed.Code(), Name: "Counter"}); err != nil {
		t.Fatalf("RegisterDefinition returned error: %v", err)
	}
	if err := reg.RegisterFeed(feed); err != nil {
		t.Fatalf("RegisterFeed returned error: %v", err)
	}
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabHotSwap: {{ID: "c1", DefinitionID: feed.Code()}},
		},
	}
	service := NewService(Options{WidgetStore: store, Providers: reg})
	resolved, err := service.ResolveArea(context.Background(), ViewerContext{}, TabHotSwap)
	if err != nil {
		t.Fatalf("ResolveArea returned error: %v", err)
	}
	if pending, _ := resolved.Widgets[0].Metadata["pending"].(bool); !pending {
		t.Fatalf("expected pending marker, got %#v", resolved.Widgets[0].Metadata)
	}
}

func TestConfigureLayoutRecordsProviderErrors(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterDefinition(WidgetDefinition{Code: "docintel.widget.broken", Name: "Broken"})
	_ = reg.RegisterProvider("docintel.widget.broken", ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return nil, errors.New("boom")
	}))
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			TabSettings: {{ID: "b1", DefinitionID: "docintel.widget.broken"}},
		},
	}
	telemetry := &testTelemetry{}
	service := NewService(Options{WidgetStore: store, Providers: reg, Telemetry: telemetry})
	resolved, err := service.ResolveArea(context.Background(), ViewerContext{}, TabSettings)
	if err != nil {
		t.Fatalf("ResolveArea returned error: %v", err)
	}
	if _, ok := resolved.Widgets[0].Metadata["data"]; ok {
		t.Fatalf("expected widget without data")
	}
	if !telemetry.saw("dashboard.widget.provider_error") {
		t.Fatalf("expected provider error telemetry, got %v", telemetry.events)
	}
}

func TestResolveAreaUnknownTab(t *testing.T) {
	service := NewService(Options{})
	_, err := service.ResolveArea(context.Background(), ViewerContext{}, "billing")
	if !errors.Is(err, ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestResolveAreaUnseededTabIsEmpty(t *testing.T) {
	service := NewService(Options{})
	resolved, err := service.ResolveArea(context.Background(), ViewerContext{}, TabSearch)
	if err != nil {
		t.Fatalf("ResolveArea returned error: %v", err)
	}
	if len(resolved.Widgets) != 0 {
		t.Fatalf("expected no widgets, got %#v", resolved.Widgets)
	}
}

func TestAddWidgetEmitsRefreshHook(t *testing.T) {
	store := &fakeWidgetStore{
		createInstanceFn: func(input CreateWidgetInstanceInput) (WidgetInstance, error) {
			return WidgetInstance{ID: "instance-1", DefinitionID: input.DefinitionID, Configuration: input.Configuration}, nil
		},
	}
	hook := &collectingHook{}
	service := NewService(Options{
		WidgetStore: store,
		RefreshHook: hook,
	})
	req := AddWidgetRequest{
		DefinitionID: WidgetRecentActivity,
		AreaCode:     TabAnalytics,
		Roles:        []string{"admin"},
	}
	if err := service.AddWidget(context.Background(), req); err != nil {
		t.Fatalf("AddWidget returned error: %v", err)
	}
	if hook.count() != 1 {
		t.Fatalf("expected hook to be invoked, got %d", hook.count())
	}
	if len(store.assignCalls) != 1 || store.assignCalls[0].AreaCode != TabAnalytics {
		t.Fatalf("expected assignment to analytics, got %#v", store.assignCalls)
	}
	if got := hook.last().Instance.Configuration["limit"]; got != 10 {
		t.Fatalf("expected schema default limit, got %#v", got)
	}
}

func TestAddWidgetRejectsInvalidConfiguration(t *testing.T) {
	service := NewService(Options{})
	err := service.AddWidget(context.Background(), AddWidgetRequest{
		DefinitionID:  WidgetRecentActivity,
		AreaCode:      TabAnalytics,
		Configuration: map[string]any{"limit": 500},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAddWidgetUnknownDefinition(t *testing.T) {
	service := NewService(Options{})
	err := service.AddWidget(context.Background(), AddWidgetRequest{DefinitionID: "docintel.widget.missing", AreaCode: TabSearch})
	if err == nil {
		t.Fatalf("expected error for unknown definition")
	}
}

func TestAddWidgetValidatesInputs(t *testing.T) {
	service := NewService(Options{WidgetStore: &fakeWidgetStore{}})
	if err := service.AddWidget(context.Background(), AddWidgetRequest{}); !errors.Is(err, errInvalidArea) {
		t.Fatalf("expected errInvalidArea, got %v", err)
	}
	if err := service.AddWidget(context.Background(), AddWidgetRequest{AreaCode: TabSearch}); !errors.Is(err, errInvalidDefinition) {
		t.Fatalf("expected errInvalidDefinition, got %v", err)
	}
}

func TestNotifyWidgetUpdatedTelemetry(t *testing.T) {
	hook := &collectingHook{}
	telemetry := &testTelemetry{}
	service := NewService(Options{
		WidgetStore: &fakeWidgetStore{},
		RefreshHook: hook,
		Telemetry:   telemetry,
	})
	event := WidgetEvent{AreaCode: TabSearch, Instance: WidgetInstance{ID: "w1", DefinitionID: WidgetSearchModes}, Reason: "refresh"}
	if err := service.NotifyWidgetUpdated(context.Background(), event); err != nil {
		t.Fatalf("NotifyWidgetUpdated returned error: %v", err)
	}
	if !telemetry.saw("dashboard.widget.event") {
		t.Fatalf("expected telemetry recorded event")
	}
	got := hook.last()
	if got.At.IsZero() {
		t.Fatalf("expected event timestamp")
	}
	if got.Data["default_mode"] != "hybrid" {
		t.Fatalf("expected provider data on event, got %#v", got.Data)
	}
}

func TestSavePreferencesRequiresUser(t *testing.T) {
	service := NewService(Options{})
	err := service.SavePreferences(context.Background(), ViewerContext{}, LayoutOverrides{})
	if err == nil {
		t.Fatalf("expected error when user missing")
	}
}

func TestSavePreferencesRejectsUnknownTabs(t *testing.T) {
	service := NewService(Options{})
	err := service.SavePreferences(context.Background(), ViewerContext{UserID: "u"}, LayoutOverrides{TabOrder: []string{"billing"}})
	if !errors.Is(err, ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestSavePreferencesStoresOverrides(t *testing.T) {
	prefs := NewInMemoryPreferenceStore()
	service := NewService(Options{PreferenceStore: prefs})
	viewer := ViewerContext{UserID: "user-4"}
	overrides := LayoutOverrides{
		TabOrder:      []string{TabModels},
		AreaOrder:     map[string][]string{TabAnalytics: {"w2", "w1"}},
		HiddenWidgets: map[string]bool{"w3": true},
	}
	if err := service.SavePreferences(context.Background(), viewer, overrides); err != nil {
		t.Fatalf("SavePreferences returned error: %v", err)
	}
	stored, err := prefs.LayoutOverrides(context.Background(), viewer)
	if err != nil {
		t.Fatalf("LayoutOverrides returned error: %v", err)
	}
	if !stored.HiddenWidgets["w3"] || stored.TabOrder[0] != TabModels {
		t.Fatalf("expected overrides persisted, got %#v", stored)
	}
}

func TestServiceStartsFeedsAndReportsStatus(t *testing.T) {
	clock := polltest.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	hook := &collectingHook{}
	feed := newTestFeed(t, "docintel.widget.counter", TabHotSwap)
	service := NewService(Options{
		RefreshHook: hook,
		Feeds:       []FeedRunner{feed},
		Clock:       clock,
	})
	if err := service.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer service.Stop()

	waitFor(t, func() bool { return hook.count() >= 1 })
	status, err := service.FeedStatus(feed.Code())
	if err != nil {
		t.Fatalf("FeedStatus returned error: %v", err)
	}
	if !status.Healthy || status.Stale || status.Status.Updates != 1 {
		t.Fatalf("unexpected feed status %#v", status)
	}
	if status.Interval != "1s" || status.AreaCode != TabHotSwap {
		t.Fatalf("unexpected feed metadata %#v", status)
	}
	if len(service.FeedStatuses()) != 1 {
		t.Fatalf("expected one feed status")
	}
	if _, err := service.FeedStatus("docintel.widget.missing"); !errors.Is(err, ErrFeedNotFound) {
		t.Fatalf("expected ErrFeedNotFound, got %v", err)
	}
	if err := service.Start(context.Background()); err == nil {
		t.Fatalf("expected error starting a running feed")
	}
}

type fakeWidgetStore struct {
	createInstanceFn func(input CreateWidgetInstanceInput) (WidgetInstance, error)
	resolveAreaFn    func(input ResolveAreaInput) (ResolvedArea, error)
	resolved         map[string][]WidgetInstance
	assignCalls      []AssignWidgetInput
	createdAreas     []string
	createdDefs      []string
}

func (f *fakeWidgetStore) EnsureArea(_ context.Context, def WidgetAreaDefinition) (bool, error) {
	f.createdAreas = append(f.createdAreas, def.Code)
	return true, nil
}

func (f *fakeWidgetStore) EnsureDefinition(_ context.Context, def WidgetDefinition) (bool, error) {
	f.createdDefs = append(f.createdDefs, def.Code)
	return true, nil
}

func (f *fakeWidgetStore) CreateInstance(_ context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error) {
	if f.createInstanceFn != nil {
		return f.createInstanceFn(input)
	}
	return WidgetInstance{ID: input.DefinitionID + "-instance", DefinitionID: input.DefinitionID}, nil
}

func (f *fakeWidgetStore) AssignInstance(_ context.Context, input AssignWidgetInput) error {
	f.assignCalls = append(f.assignCalls, input)
	return nil
}

func (f *fakeWidgetStore) ResolveArea(_ context.Context, input ResolveAreaInput) (ResolvedArea, error) {
	if f.resolveAreaFn != nil {
		return f.resolveAreaFn(input)
	}
	widgets := make([]WidgetInstance, len(f.resolved[input.AreaCode]))
	copy(widgets, f.resolved[input.AreaCode])
	return ResolvedArea{AreaCode: input.AreaCode, Widgets: widgets}, nil
}

type allowListAuthorizer struct {
	allowed map[string]bool
}

func (a allowListAuthorizer) CanViewWidget(_ context.Context, _ ViewerContext, instance WidgetInstance) bool {
	return a.allowed[instance.ID]
}

type testTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *testTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.mu.Lock()
	t.events = append(t.events, event)
	t.mu.Unlock()
}

func (t *testTelemetry) saw(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.events {
		if e == event {
			return true
		}
	}
	return false
}

var _ poll.Clock = (*polltest.Clock)(nil)
