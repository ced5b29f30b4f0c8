package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/docintel"
)

// Smoke test to ensure main honors SKIP_SERVER_RUN and does not block test runs.
func TestMainSkipsWhenEnvSet(t *testing.T) {
	t.Setenv("SKIP_SERVER_RUN", "1")
	main()
}

func runCLI(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(ctx, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestManifestCommandWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "widgets.yaml")
	out, err := runCLI(t, context.Background(), "--offline", "manifest", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	doc, err := dashboard.ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "docintel", doc.Name)
	assert.Len(t, doc.Areas, len(dashboard.DefaultAreaDefinitions()))
}

func TestManifestCommandStdout(t *testing.T) {
	out, err := runCLI(t, context.Background(), "--offline", "manifest")
	require.NoError(t, err)
	doc, err := dashboard.DecodeManifest(strings.NewReader(out))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Widgets)
}

func TestShowRedactsTokens(t *testing.T) {
	t.Setenv("DOCINTEL_SOURCES_GITHUB_TOKEN", "secret-token")
	out, err := runCLI(t, context.Background(), "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "base_path: /docintel")
}

func TestWatchPrintsEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := runCLI(t, ctx, "--offline", "watch", "--format", "json", "--count", "1", config.FeedModels)
	require.NoError(t, err)

	var event watchEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &event))
	assert.Equal(t, dashboard.WidgetAIModels, event.Widget)
	assert.Equal(t, dashboard.ReasonPoll, event.Reason)
	assert.Contains(t, event.Data, "models")
}

func TestWatchRejectsUnknownWidget(t *testing.T) {
	_, err := runCLI(t, context.Background(), "--offline", "watch", "weather")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestConfigFileIsLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docintel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  base_path: /intel\n"), 0o600))
	out, err := runCLI(t, context.Background(), "--config", path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_path: /intel")
}

func TestOpsHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Offline = true
	cfg.Metrics.Runtime = false
	app, err := docintel.New(cfg)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(app.Stop)
	handler := opsHandler(app)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.EqualValues(t, len(config.FeedNames), health["feeds"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docintel_")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docintel/dashboard/_layout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tabs"`)
}

func TestDataEventSkipsLayoutEvents(t *testing.T) {
	data := dashboard.WidgetData{"models": []string{"a"}}
	assert.True(t, dataEvent(dashboard.WidgetEvent{Reason: dashboard.ReasonPoll, Data: data}))
	assert.True(t, dataEvent(dashboard.WidgetEvent{Reason: dashboard.ReasonMutate, Data: data}))
	assert.False(t, dataEvent(dashboard.WidgetEvent{Reason: dashboard.ReasonAdd}))
	assert.False(t, dataEvent(dashboard.WidgetEvent{Reason: dashboard.ReasonPoll}))
	assert.False(t, dataEvent(dashboard.WidgetEvent{Reason: "refresh", Data: data}))
}
