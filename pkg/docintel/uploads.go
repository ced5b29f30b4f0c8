package docintel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/poll"
	"github.com/goliatone/go-docintel/pkg/insights"
)

const (
	uploadSource   = "docintel.uploads"
	uploadInterval = 500 * time.Millisecond
)

var errUploadsClosed = errors.New("docintel: upload hub is closed")

// UploadHub simulates the document pipeline. Every upload is stepped by its
// own poll subscription until it completes, and each change is pushed to the
// hook for the placed upload queue widgets.
type UploadHub struct {
	hook      dashboard.RefreshHook
	clock     poll.Clock
	now       func() time.Time
	logger    *slog.Logger
	observer  poll.Observer
	interval  time.Duration
	instances func(ctx context.Context, definition string) ([]dashboard.WidgetInstance, error)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  insights.UploadQueue
	subs   map[string]*poll.Subscription
	closed bool
}

var _ dashboard.Provider = (*UploadHub)(nil)

func newUploadHub(hook dashboard.RefreshHook, clock poll.Clock, now func() time.Time, logger *slog.Logger, observer poll.Observer) *UploadHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &UploadHub{
		hook:     hook,
		clock:    clock,
		now:      now,
		logger:   logger,
		observer: observer,
		interval: uploadInterval,
		ctx:      ctx,
		cancel:   cancel,
		subs:     map[string]*poll.Subscription{},
	}
}

// Start queues an upload and begins stepping it. The simulation is not bound
// to ctx: it runs until the upload completes or the hub is closed.
func (h *UploadHub) Start(_ context.Context, id, name, mime string, size int64) error {
	start := h.now()
	initial := insights.NewUpload(id, name, mime, size, start)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errUploadsClosed
	}
	if _, ok := h.queue.Upload(id); ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: upload %s already exists", commands.ErrInvalidInput, id)
	}

	sub, err := poll.Subscribe(poll.Config[time.Time, insights.Upload]{
		Name:     uploadSource,
		Interval: h.interval,
		Fetch: func(context.Context) (time.Time, error) {
			return h.now(), nil
		},
		Transform: func(at time.Time) (insights.Upload, error) {
			steps := int(at.Sub(start) / h.interval)
			return initial.AdvanceBy(min(max(steps, 0), insights.UploadSteps)), nil
		},
	}, h.update,
		poll.WithContext(h.ctx),
		poll.WithClock(h.clock),
		poll.WithObserver(h.observer),
		poll.WithLogger(h.logger),
	)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.queue = h.queue.Add(initial)
	h.subs[id] = sub
	h.mu.Unlock()

	h.publish(h.ctx, initial)
	return nil
}

func (h *UploadHub) update(upload insights.Upload) {
	h.mu.Lock()
	current, ok := h.queue.Upload(upload.ID)
	if !ok || current == upload {
		h.mu.Unlock()
		return
	}
	next, err := h.queue.Replace(upload)
	if err != nil {
		h.mu.Unlock()
		return
	}
	h.queue = next
	if upload.Done() {
		if sub := h.subs[upload.ID]; sub != nil {
			sub.Cancel()
		}
		delete(h.subs, upload.ID)
	}
	h.mu.Unlock()

	if upload.Done() && h.logger != nil {
		h.logger.Debug("upload finished", slog.String("id", upload.ID), slog.String("status", upload.Status))
	}
	h.publish(h.ctx, upload)
}

func (h *UploadHub) publish(ctx context.Context, upload insights.Upload) {
	data := h.render()
	for _, instance := range h.targets(ctx) {
		event := dashboard.WidgetEvent{
			AreaCode: instance.AreaCode,
			Instance: instance,
			Reason:   dashboard.ReasonMutate,
			Data:     data,
			At:       h.now(),
		}
		if err := h.hook.WidgetUpdated(ctx, event); err != nil && h.logger != nil {
			h.logger.Warn("upload event failed", slog.String("id", upload.ID), slog.Any("error", err))
		}
	}
}

func (h *UploadHub) targets(ctx context.Context) []dashboard.WidgetInstance {
	fallback := []dashboard.WidgetInstance{{DefinitionID: dashboard.WidgetUploadQueue, AreaCode: dashboard.TabUpload}}
	if h.instances == nil {
		return fallback
	}
	placed, err := h.instances(ctx, dashboard.WidgetUploadQueue)
	if err != nil && h.logger != nil {
		h.logger.Warn("resolve upload widgets failed", slog.Any("error", err))
	}
	if len(placed) == 0 {
		return fallback
	}
	return placed
}

// Fetch renders the queue for the upload queue widget.
func (h *UploadHub) Fetch(context.Context, dashboard.WidgetContext) (dashboard.WidgetData, error) {
	return h.render(), nil
}

func (h *UploadHub) render() dashboard.WidgetData {
	queue := h.Queue()
	return dashboard.WidgetData{"uploads": queue.Uploads, "counts": queue.Counts()}
}

// Queue returns a snapshot of every upload, oldest first.
func (h *UploadHub) Queue() insights.UploadQueue {
	h.mu.Lock()
	defer h.mu.Unlock()
	return insights.UploadQueue{Uploads: append([]insights.Upload{}, h.queue.Uploads...)}
}

// Close stops every running upload. Unfinished uploads keep their last state.
func (h *UploadHub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = map[string]*poll.Subscription{}
	h.mu.Unlock()
	h.cancel()
	for _, sub := range subs {
		sub.Cancel()
	}
}
