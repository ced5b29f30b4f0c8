package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-docintel/components/poll"
)

var (
	// ErrFeedPending is returned while a feed has not published its first value.
	ErrFeedPending = errors.New("dashboard: feed has not published yet")
	// ErrFeedNotFound is returned when no feed is registered under a widget code.
	ErrFeedNotFound = errors.New("dashboard: feed not found")

	errFeedRunning = errors.New("dashboard: feed already running")
)

// Event reasons. Feeds publish poll and mutate; placements publish add.
const (
	ReasonPoll   = "poll"
	ReasonMutate = "mutate"
	ReasonAdd    = "add"
)

// FeedRuntime carries the collaborators a running feed publishes to.
type FeedRuntime struct {
	Hook      RefreshHook
	Telemetry Telemetry
	Logger    *slog.Logger
	Observer  poll.Observer
	Clock     poll.Clock
	// Instances lists the placed instances events are rendered for. When nil
	// or empty a single definition-level event is published.
	Instances func(ctx context.Context, definition string) ([]WidgetInstance, error)
}

// FeedRunner is a provider whose data comes from a poll subscription.
type FeedRunner interface {
	Provider
	Code() string
	AreaCode() string
	Interval() time.Duration
	Start(ctx context.Context, rt FeedRuntime) error
	Stop()
	Status() poll.Status
}

// RenderFunc turns the latest view model into a widget payload.
type RenderFunc[V any] func(ctx context.Context, vm V, meta WidgetContext) (WidgetData, error)

// FeedConfig describes a polled widget.
type FeedConfig[R, V any] struct {
	Code     string
	AreaCode string
	Interval time.Duration
	Overlap  poll.OverlapPolicy
	Fetch    poll.FetchFunc[R]
	// Transform runs once per successful fetch on the poll goroutine.
	Transform poll.TransformFunc[R, V]
	Render    RenderFunc[V]
	// Configuration is used when rendering pushed events.
	Configuration map[string]any
}

// Feed keeps the latest view model of one poll subscription and serves it as widget data.
type Feed[R, V any] struct {
	cfg FeedConfig[R, V]

	mu      sync.RWMutex
	ctx     context.Context
	rt      FeedRuntime
	sub     *poll.Subscription
	latest  V
	has     bool
	updated time.Time
}

var _ FeedRunner = (*Feed[struct{}, struct{}])(nil)

// NewFeed validates cfg and returns an idle feed.
func NewFeed[R, V any](cfg FeedConfig[R, V]) (*Feed[R, V], error) {
	if cfg.Code == "" {
		return nil, errMissingCode
	}
	if cfg.Render == nil {
		return nil, fmt.Errorf("dashboard: feed %s requires a render func", cfg.Code)
	}
	probe := poll.Config[R, V]{Name: cfg.Code, Fetch: cfg.Fetch, Interval: cfg.Interval, Transform: cfg.Transform}
	if err := probe.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: feed %s: %w", cfg.Code, err)
	}
	return &Feed[R, V]{cfg: cfg}, nil
}

func (f *Feed[R, V]) Code() string            { return f.cfg.Code }
func (f *Feed[R, V]) AreaCode() string        { return f.cfg.AreaCode }
func (f *Feed[R, V]) Interval() time.Duration { return f.cfg.Interval }

// Start subscribes the feed. It stops when Stop is called or ctx is done.
func (f *Feed[R, V]) Start(ctx context.Context, rt FeedRuntime) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil && !f.sub.Cancelled() {
		return fmt.Errorf("%w: %s", errFeedRunning, f.cfg.Code)
	}
	if rt.Hook == nil {
		rt.Hook = noopRefreshHook{}
	}
	rt.Telemetry = normalizeTelemetry(rt.Telemetry)
	f.ctx = ctx
	f.rt = rt

	sub, err := poll.Subscribe(poll.Config[R, V]{
		Name:      f.cfg.Code,
		Fetch:     f.cfg.Fetch,
		Interval:  f.cfg.Interval,
		Transform: f.cfg.Transform,
	}, f.publish,
		poll.WithContext(ctx),
		poll.WithErrorSink(f.fail),
		poll.WithLogger(rt.Logger),
		poll.WithOverlap(f.cfg.Overlap),
		poll.WithObserver(rt.Observer),
		poll.WithClock(rt.Clock),
	)
	if err != nil {
		return fmt.Errorf("dashboard: start feed %s: %w", f.cfg.Code, err)
	}
	f.sub = sub
	return nil
}

// Stop cancels the subscription. The last published value stays available.
func (f *Feed[R, V]) Stop() {
	f.mu.RLock()
	sub := f.sub
	f.mu.RUnlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Status reports the subscription health; the zero Status before Start.
func (f *Feed[R, V]) Status() poll.Status {
	f.mu.RLock()
	sub := f.sub
	f.mu.RUnlock()
	if sub == nil {
		return poll.Status{}
	}
	return sub.Status()
}

// Latest returns the most recent view model and when it landed.
func (f *Feed[R, V]) Latest() (V, time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.updated, f.has
}

// Fetch renders the latest view model for the widget instance.
func (f *Feed[R, V]) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	vm, _, ok := f.Latest()
	if !ok {
		return nil, ErrFeedPending
	}
	return f.cfg.Render(ctx, vm, meta)
}

// Mutate applies fn to the latest view model and broadcasts the result.
// fn must return a new value rather than modify its argument in place. The
// next successful poll replaces the mutated value.
func (f *Feed[R, V]) Mutate(ctx context.Context, fn func(V) (V, error)) error {
	f.mu.Lock()
	if !f.has {
		f.mu.Unlock()
		return ErrFeedPending
	}
	next, err := fn(f.latest)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.latest = next
	f.updated = f.now()
	rt := f.runtime()
	f.mu.Unlock()
	return f.broadcast(ctx, rt, next, ReasonMutate)
}

func (f *Feed[R, V]) publish(vm V) {
	f.mu.Lock()
	f.latest = vm
	f.has = true
	f.updated = f.now()
	rt := f.runtime()
	ctx := f.ctx
	f.mu.Unlock()
	_ = f.broadcast(ctx, rt, vm, ReasonPoll)
}

func (f *Feed[R, V]) fail(err error) {
	f.mu.RLock()
	rt := f.runtime()
	ctx := f.ctx
	f.mu.RUnlock()
	payload := map[string]any{
		"definition_id": f.cfg.Code,
		"error":         err.Error(),
	}
	var tickErr *poll.TickError
	if errors.As(err, &tickErr) {
		payload["stage"] = string(tickErr.Stage)
		payload["tick"] = tickErr.Tick
	}
	rt.Telemetry.Record(ctx, "dashboard.feed.error", payload)
	if rt.Logger != nil {
		rt.Logger.Warn("feed tick failed", slog.String("widget", f.cfg.Code), slog.Any("error", err))
	}
}

func (f *Feed[R, V]) broadcast(ctx context.Context, rt FeedRuntime, vm V, reason string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs error
	for _, instance := range f.targets(ctx, rt) {
		errs = errors.Join(errs, f.publishTo(ctx, rt, instance, vm, reason))
	}
	return errs
}

// targets returns the instances to render for, falling back to the
// definition-level instance when none are placed.
func (f *Feed[R, V]) targets(ctx context.Context, rt FeedRuntime) []WidgetInstance {
	if rt.Instances != nil {
		placed, err := rt.Instances(ctx, f.cfg.Code)
		if err != nil && rt.Logger != nil {
			rt.Logger.Warn("resolve feed instances failed", slog.String("widget", f.cfg.Code), slog.Any("error", err))
		}
		if len(placed) > 0 {
			return placed
		}
	}
	return []WidgetInstance{f.instance()}
}

func (f *Feed[R, V]) publishTo(ctx context.Context, rt FeedRuntime, instance WidgetInstance, vm V, reason string) error {
	data, err := f.cfg.Render(ctx, vm, WidgetContext{Instance: instance})
	if err != nil {
		rt.Telemetry.Record(ctx, "dashboard.feed.render_error", map[string]any{
			"definition_id": f.cfg.Code,
			"instance_id":   instance.ID,
			"error":         err.Error(),
		})
		return fmt.Errorf("dashboard: render feed %s: %w", f.cfg.Code, err)
	}
	area := instance.AreaCode
	if area == "" {
		area = f.cfg.AreaCode
	}
	event := WidgetEvent{
		AreaCode: area,
		Instance: instance,
		Reason:   reason,
		Data:     data,
		At:       clockNow(rt.Clock),
	}
	if err := rt.Hook.WidgetUpdated(ctx, event); err != nil {
		if rt.Logger != nil {
			rt.Logger.Warn("refresh hook failed", slog.String("widget", f.cfg.Code), slog.Any("error", err))
		}
		return err
	}
	rt.Telemetry.Record(ctx, "dashboard.feed.update", map[string]any{
		"definition_id": f.cfg.Code,
		"instance_id":   instance.ID,
		"reason":        reason,
	})
	return nil
}

func (f *Feed[R, V]) instance() WidgetInstance {
	return WidgetInstance{
		DefinitionID:  f.cfg.Code,
		AreaCode:      f.cfg.AreaCode,
		Configuration: f.cfg.Configuration,
	}
}

// runtime returns the runtime with defaults for a feed that was never started.
func (f *Feed[R, V]) runtime() FeedRuntime {
	rt := f.rt
	if rt.Hook == nil {
		rt.Hook = noopRefreshHook{}
	}
	rt.Telemetry = normalizeTelemetry(rt.Telemetry)
	return rt
}

func (f *Feed[R, V]) now() time.Time {
	return clockNow(f.rt.Clock)
}

func clockNow(clock poll.Clock) time.Time {
	if clock != nil {
		return clock.Now()
	}
	return time.Now()
}
