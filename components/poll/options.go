package poll

import (
	"context"
	"log/slog"
	"time"
)

// OverlapPolicy decides what happens when a tick fires while a fetch is still pending.
type OverlapPolicy int

const (
	// OverlapSkip drops ticks while a fetch is in flight.
	OverlapSkip OverlapPolicy = iota
	// OverlapReplace cancels the pending fetch and starts a new one. Only the
	// most recently started tick may publish.
	OverlapReplace
)

func (p OverlapPolicy) String() string {
	switch p {
	case OverlapSkip:
		return "skip"
	case OverlapReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ParseOverlapPolicy maps a config value onto a policy. Empty means skip.
func ParseOverlapPolicy(v string) (OverlapPolicy, bool) {
	switch v {
	case "", "skip":
		return OverlapSkip, true
	case "replace":
		return OverlapReplace, true
	default:
		return OverlapSkip, false
	}
}

// ErrorSink receives tick failures.
type ErrorSink func(err error)

// Observer is notified about tick lifecycle events, typically for metrics.
type Observer interface {
	TickStarted(source string)
	TickSkipped(source string)
	TickFinished(source string, duration time.Duration, err error)
}

// Option customizes a subscription.
type Option func(*settings)

type settings struct {
	sink     ErrorSink
	logger   *slog.Logger
	overlap  OverlapPolicy
	clock    Clock
	observer Observer
	parent   context.Context
}

func defaultSettings() settings {
	return settings{
		sink:     func(error) {},
		overlap:  OverlapSkip,
		clock:    realClock{},
		observer: noopObserver{},
		parent:   context.Background(),
	}
}

// WithErrorSink routes tick failures to sink. Failures are dropped by default.
func WithErrorSink(sink ErrorSink) Option {
	return func(s *settings) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger enables debug/warn logging of the poll loop.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithOverlap selects the overlap policy.
func WithOverlap(policy OverlapPolicy) Option {
	return func(s *settings) {
		s.overlap = policy
	}
}

// WithClock injects a clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithObserver registers a tick observer.
func WithObserver(observer Observer) Option {
	return func(s *settings) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithContext ties the subscription to ctx: it is cancelled when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.parent = ctx
		}
	}
}

type noopObserver struct{}

func (noopObserver) TickStarted(string)                        {}
func (noopObserver) TickSkipped(string)                        {}
func (noopObserver) TickFinished(string, time.Duration, error) {}
