package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/poll"
)

const namespace = "docintel"

// Recorder exports poll and dashboard activity as Prometheus metrics. It
// satisfies poll.Observer and dashboard.Telemetry. A nil Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	ticks    *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	failures *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

var (
	_ poll.Observer       = (*Recorder)(nil)
	_ dashboard.Telemetry = (*Recorder)(nil)
)

// NewRecorder registers the collectors on a private registry. Go runtime and
// process collectors are included when withRuntime is true.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "ticks_total",
			Help:      "Poll ticks started per source.",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "skipped_total",
			Help:      "Poll ticks skipped because a fetch was still in flight.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "failures_total",
			Help:      "Failed poll ticks per source and stage.",
		}, []string{"source", "stage"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "in_flight",
			Help:      "Poll ticks currently running per source.",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "tick_duration_seconds",
			Help:      "Duration of completed poll ticks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "events_total",
			Help:      "Dashboard telemetry events.",
		}, []string{"event"}),
	}
	r.registry.MustRegister(r.ticks, r.skipped, r.failures, r.inFlight, r.duration, r.events)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) TickStarted(source string) {
	if r == nil {
		return
	}
	r.ticks.WithLabelValues(source).Inc()
	r.inFlight.WithLabelValues(source).Inc()
}

func (r *Recorder) TickSkipped(source string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(source).Inc()
}

func (r *Recorder) TickFinished(source string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.inFlight.WithLabelValues(source).Dec()
	outcome := "success"
	if err != nil {
		outcome = "failure"
		r.failures.WithLabelValues(source, stageOf(err)).Inc()
	}
	r.duration.WithLabelValues(source, outcome).Observe(duration.Seconds())
}

// Record counts a dashboard telemetry event.
func (r *Recorder) Record(_ context.Context, event string, _ map[string]any) {
	if r == nil || event == "" {
		return
	}
	r.events.WithLabelValues(event).Inc()
}

func stageOf(err error) string {
	var tickErr *poll.TickError
	if errors.As(err, &tickErr) {
		return string(tickErr.Stage)
	}
	return "unknown"
}
