package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultSourceName = "poll"

// ErrInvalidConfig is returned by Subscribe when the configuration cannot be scheduled.
var ErrInvalidConfig = errors.New("poll: invalid config")

// Stage identifies which half of a tick failed.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
)

// TickError describes a failed tick. The subscription keeps running after it.
type TickError struct {
	Source string
	Tick   uint64
	Stage  Stage
	Err    error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("poll: %s tick %d %s failed: %v", e.Source, e.Tick, e.Stage, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}

// FetchFunc retrieves the raw payload for one tick.
type FetchFunc[R any] func(ctx context.Context) (R, error)

// TransformFunc reshapes a raw payload into a view model.
type TransformFunc[R, V any] func(raw R) (V, error)

// Config describes what to poll and how often. It is copied on Subscribe.
type Config[R, V any] struct {
	Name      string
	Fetch     FetchFunc[R]
	Interval  time.Duration
	Transform TransformFunc[R, V]
}

// Validate reports every missing or invalid field.
func (c Config[R, V]) Validate() error {
	var problems []string
	if c.Fetch == nil {
		problems = append(problems, "fetch is required")
	}
	if c.Transform == nil {
		problems = append(problems, "transform is required")
	}
	if c.Interval <= 0 {
		problems = append(problems, fmt.Sprintf("interval must be positive, got %s", c.Interval))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// Subscription is the handle for a running poll loop.
type Subscription struct {
	name     string
	interval time.Duration
	settings settings

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	stopParent  func() bool
	cancelOnce  sync.Once
	cancelled   atomic.Bool
	deliverMu   sync.Mutex
	dispatching atomic.Bool

	statusMu sync.RWMutex
	status   Status
}

// Subscribe starts polling cfg. The first fetch fires immediately, then once per
// interval until Cancel is called or the WithContext context is done.
func Subscribe[R, V any](cfg Config[R, V], onUpdate func(V), opts ...Option) (*Subscription, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if onUpdate == nil {
		return nil, fmt.Errorf("%w: update callback is required", ErrInvalidConfig)
	}
	st := defaultSettings()
	for _, opt := range opts {
		opt(&st)
	}
	name := cfg.Name
	if name == "" {
		name = defaultSourceName
	}
	ctx, cancel := context.WithCancel(st.parent)
	sub := &Subscription{
		name:     name,
		interval: cfg.Interval,
		settings: st,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	// Parent cancellation goes through Cancel so it suppresses deliveries the
	// same way, even while the loop is busy in a transform.
	sub.stopParent = context.AfterFunc(st.parent, sub.Cancel)
	l := &loop[R, V]{
		sub:       sub,
		fetch:     cfg.Fetch,
		transform: cfg.Transform,
		onUpdate:  onUpdate,
		results:   make(chan outcome[R], 1),
	}
	ticker := st.clock.NewTicker(cfg.Interval)
	go l.run(ticker)
	return sub, nil
}

// Cancel stops the subscription. No update or error callback starts after it
// returns. It is idempotent and may be called from inside a callback, in which
// case it does not wait for that callback to return.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		s.cancel()
		if s.dispatching.Load() {
			return
		}
		// Wait out a delivery that passed its cancellation check before the flag flipped.
		s.deliverMu.Lock()
		s.deliverMu.Unlock()
	})
}

// Done is closed once the poll loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancelled reports whether the subscription reached its terminal state.
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}

// Name returns the source name used in logs, errors and metrics.
func (s *Subscription) Name() string {
	return s.name
}

// Interval returns the configured tick interval.
func (s *Subscription) Interval() time.Duration {
	return s.interval
}

// Status returns a snapshot of the subscription's health.
func (s *Subscription) Status() Status {
	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()
	status.Cancelled = s.cancelled.Load()
	return status
}

func (s *Subscription) dispatch(fn func()) bool {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.dispatching.Store(true)
	defer s.dispatching.Store(false)
	if s.cancelled.Load() {
		return false
	}
	fn()
	return true
}

func (s *Subscription) recordAttempt(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Ticks++
	s.status.LastAttempt = at
}

func (s *Subscription) recordSkip() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Skipped++
}

func (s *Subscription) recordSuccess(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Updates++
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
	s.status.LastSuccess = at
}

func (s *Subscription) recordFailure(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Failures++
	s.status.ConsecutiveFailures++
	if err != nil {
		s.status.LastError = err.Error()
	}
}

func (s *Subscription) debug(msg string, args ...any) {
	if s.settings.logger != nil {
		s.settings.logger.Debug(msg, append([]any{slog.String("source", s.name)}, args...)...)
	}
}

func (s *Subscription) warn(msg string, args ...any) {
	if s.settings.logger != nil {
		s.settings.logger.Warn(msg, append([]any{slog.String("source", s.name)}, args...)...)
	}
}

type outcome[R any] struct {
	tick    uint64
	started time.Time
	raw     R
	err     error
}

// loop owns the ticker and all in-flight bookkeeping; only its goroutine touches these fields.
type loop[R, V any] struct {
	sub       *Subscription
	fetch     FetchFunc[R]
	transform TransformFunc[R, V]
	onUpdate  func(V)
	results   chan outcome[R]

	seq         uint64
	inFlight    bool
	cancelFetch context.CancelFunc
}

func (l *loop[R, V]) run(ticker Ticker) {
	s := l.sub
	defer close(s.done)
	defer s.stopParent()
	defer ticker.Stop()

	s.debug("poll started", slog.Int64("interval_ms", s.interval.Milliseconds()))
	l.start()

	for {
		select {
		case <-s.ctx.Done():
			s.cancelled.Store(true)
			l.abortFetch()
			s.debug("poll stopped")
			return
		case <-ticker.C():
			if l.inFlight && s.settings.overlap == OverlapSkip {
				s.recordSkip()
				s.settings.observer.TickSkipped(s.name)
				s.debug("tick skipped, fetch still in flight", slog.Uint64("tick", l.seq))
				continue
			}
			l.start()
		case out := <-l.results:
			if out.tick != l.seq {
				// Superseded by a newer tick under OverlapReplace.
				continue
			}
			l.inFlight = false
			l.abortFetch()
			l.complete(out)
		}
	}
}

func (l *loop[R, V]) start() {
	s := l.sub
	l.abortFetch()
	l.seq++
	tick := l.seq
	fetchCtx, cancel := context.WithCancel(s.ctx)
	l.cancelFetch = cancel
	l.inFlight = true

	started := s.settings.clock.Now()
	s.recordAttempt(started)
	s.settings.observer.TickStarted(s.name)

	fetch := l.fetch
	results := l.results
	done := s.ctx.Done()
	go func() {
		raw, err := safeFetch(fetchCtx, fetch)
		select {
		case results <- outcome[R]{tick: tick, started: started, raw: raw, err: err}:
		case <-done:
		}
	}()
}

func (l *loop[R, V]) abortFetch() {
	if l.cancelFetch != nil {
		l.cancelFetch()
		l.cancelFetch = nil
	}
}

func (l *loop[R, V]) complete(out outcome[R]) {
	s := l.sub
	if out.err != nil {
		l.fail(out, StageFetch, out.err)
		return
	}
	vm, err := safeTransform(l.transform, out.raw)
	if err != nil {
		l.fail(out, StageTransform, err)
		return
	}
	now := s.settings.clock.Now()
	s.settings.observer.TickFinished(s.name, now.Sub(out.started), nil)
	s.recordSuccess(now)
	s.dispatch(func() { l.onUpdate(vm) })
}

func (l *loop[R, V]) fail(out outcome[R], stage Stage, err error) {
	s := l.sub
	tickErr := &TickError{Source: s.name, Tick: out.tick, Stage: stage, Err: err}
	s.settings.observer.TickFinished(s.name, s.settings.clock.Now().Sub(out.started), tickErr)
	s.recordFailure(tickErr)
	s.warn("poll tick failed", slog.Uint64("tick", out.tick), slog.String("stage", string(stage)), slog.Any("error", err))
	s.dispatch(func() { s.settings.sink(tickErr) })
}

func safeFetch[R any](ctx context.Context, fetch FetchFunc[R]) (raw R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

func safeTransform[R, V any](transform TransformFunc[R, V], raw R) (vm V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return transform(raw)
}
