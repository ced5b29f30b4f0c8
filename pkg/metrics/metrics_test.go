package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docintel/components/poll"
)

func TestRecorderTracksTicks(t *testing.T) {
	rec := NewRecorder(false)
	rec.TickStarted("deployments")
	rec.TickFinished("deployments", 20*time.Millisecond, nil)
	rec.TickStarted("deployments")
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.inFlight.WithLabelValues("deployments")))
	rec.TickFinished("deployments", 5*time.Millisecond, &poll.TickError{Source: "deployments", Stage: poll.StageFetch, Err: errors.New("boom")})
	rec.TickSkipped("deployments")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.ticks.WithLabelValues("deployments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.skipped.WithLabelValues("deployments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.failures.WithLabelValues("deployments", "fetch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.inFlight.WithLabelValues("deployments")))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.duration))
}

func TestRecorderUnknownStage(t *testing.T) {
	rec := NewRecorder(false)
	rec.TickFinished("models", time.Millisecond, errors.New("plain"))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.failures.WithLabelValues("models", "unknown")))
}

func TestRecorderCountsTelemetry(t *testing.T) {
	rec := NewRecorder(false)
	rec.Record(context.Background(), "dashboard.feed.update", nil)
	rec.Record(context.Background(), "dashboard.feed.update", map[string]any{"reason": "poll"})
	rec.Record(context.Background(), "", nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.events.WithLabelValues("dashboard.feed.update")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.events))
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	rec := NewRecorder(true)
	rec.TickStarted("security")

	srv := httptest.NewServer(rec.Handler())
	t.Cleanup(srv.Close)
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `docintel_poll_ticks_total{source="security"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.TickStarted("x")
		rec.TickSkipped("x")
		rec.TickFinished("x", time.Second, nil)
		rec.Record(context.Background(), "e", nil)
	})
	assert.Nil(t, rec.Registry())
}
