package insights

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docintel/pkg/sources"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func zeroSynth() *Synthesizer {
	return NewSynthesizer(&Sequence{}, WithNow(func() time.Time { return fixedNow }))
}

func TestSequenceCyclesAndReduces(t *testing.T) {
	seq := &Sequence{Ints: []int{7, -3}, Floats: []float64{0.25, 0.75}}
	assert.Equal(t, 2, seq.IntN(5))
	assert.Equal(t, 3, seq.IntN(5))
	assert.Equal(t, 7, seq.IntN(10))
	assert.Equal(t, 0.25, seq.Float64())
	assert.Equal(t, 0.75, seq.Float64())
	assert.Equal(t, 0.25, seq.Float64())
}

func TestGeneratorIsDeterministicPerSeed(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.IntN(1000), b.IntN(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDeploymentsFromCommits(t *testing.T) {
	when := time.Date(2024, 5, 4, 3, 2, 1, 0, time.UTC)
	commits := make([]sources.Commit, 7)
	for i := range commits {
		commits[i] = sources.Commit{SHA: strings.Repeat(string(rune('a'+i)), 12)}
		commits[i].Commit.Author.Date = when
	}
	seq := &Sequence{Ints: []int{1}, Floats: []float64{0.5}}
	board, err := NewSynthesizer(seq).Deployments(commits)
	require.NoError(t, err)
	require.Len(t, board.Deployments, 7)

	first := board.Deployments[0]
	assert.Equal(t, "aaaaaaaa", first.ID)
	assert.Equal(t, "ML Pipeline", first.Component)
	assert.Equal(t, "ml-pipeline", first.ComponentKey)
	assert.Equal(t, "v2.1.1", first.Version)
	assert.Equal(t, StatusDeploying, first.Status)
	assert.Equal(t, 1, first.Progress)
	assert.Equal(t, when, first.Timestamp)
	assert.Equal(t, DeploymentMetrics{ResponseTime: 51, ErrorRate: 1, Throughput: 501}, first.Metrics)
	assert.Equal(t, "ML Pipeline", board.Deployments[6].Component, "components wrap around")

	active, ok := board.Active()
	require.True(t, ok)
	assert.Equal(t, "aaaaaaaa", active.ID)
	assert.Equal(t, 98.5, board.Health.Overall)
}

func TestDeploymentsRejectShortSHA(t *testing.T) {
	_, err := zeroSynth().Deployments([]sources.Commit{{SHA: "abc"}})
	require.Error(t, err)
}

func TestDeploymentBoardInitiate(t *testing.T) {
	board, err := zeroSynth().Deployments([]sources.Commit{{SHA: "0123456789"}})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, board.Deployments[0].Status)
	_, ok := board.Active()
	assert.False(t, ok)

	next := board.Initiate("newid123", "", "", fixedNow)
	require.Len(t, next.Deployments, 2)
	require.Len(t, board.Deployments, 1, "original board untouched")
	assert.Equal(t, "newid123", next.Deployments[0].ID)
	assert.Equal(t, DefaultDeploymentComponent, next.Deployments[0].Component)
	assert.Equal(t, DefaultDeploymentVersion, next.Deployments[0].Version)
	assert.Equal(t, StatusDeploying, next.Deployments[0].Status)
	active, ok := next.Active()
	require.True(t, ok)
	assert.Equal(t, "newid123", active.ID)

	labels, values := next.Throughput()
	assert.Equal(t, []string{"ML Pipeline", "ML Pipeline"}, labels)
	assert.Equal(t, 0.0, values[0])
}

func TestModelsFromUsers(t *testing.T) {
	users := make([]sources.User, 10)
	for i := range users {
		users[i] = sources.User{ID: i + 1}
	}
	fleet, err := zeroSynth().Models(users)
	require.NoError(t, err)
	require.Len(t, fleet.Models, 8)

	assert.Equal(t, "GPT-4-Turbo", fleet.Models[0].Name)
	assert.Equal(t, "llm", fleet.Models[2].Type)
	assert.Equal(t, "embedding", fleet.Models[3].Type)
	assert.Equal(t, "reranker", fleet.Models[7].Type)
	assert.Equal(t, []string{ModelActive, ModelInactive, ModelLoading}, []string{
		fleet.Models[0].Status, fleet.Models[1].Status, fleet.Models[2].Status,
	})
	assert.Equal(t, 70, fleet.Models[0].Performance)
	assert.Equal(t, "v1.0", fleet.Models[0].Version)

	assert.Equal(t, 8, fleet.Stats.Total)
	assert.Equal(t, 3, fleet.Stats.Active)
	assert.Equal(t, 100.0, fleet.Stats.AvgLatency)
	assert.InDelta(t, 0.008, fleet.Stats.TotalCost, 1e-9)
}

func TestModelToggle(t *testing.T) {
	fleet, err := zeroSynth().Models([]sources.User{{ID: 1}, {ID: 2}, {ID: 3}})
	require.NoError(t, err)

	toggled, err := fleet.Toggle("1")
	require.NoError(t, err)
	assert.Equal(t, ModelInactive, toggled.Models[0].Status)
	assert.Equal(t, ModelActive, fleet.Models[0].Status, "original fleet untouched")
	assert.Equal(t, 0, toggled.Stats.Active)

	toggled, err = toggled.Toggle("3")
	require.NoError(t, err)
	assert.Equal(t, ModelActive, toggled.Models[2].Status, "loading becomes active")

	_, err = fleet.Toggle("99")
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestKnowledgeGraph(t *testing.T) {
	repos := []sources.Repository{
		{ID: 1, Name: "Transformers", Stars: 25000},
		{ID: 2, Name: "langchain", Stars: 5000},
		{ID: 3, Name: "whisper", Stars: 999},
		{ID: 4, Name: "llama.cpp", Stars: 0},
	}
	seq := &Sequence{Floats: []float64{0.25, 0.9}}
	graph, err := NewSynthesizer(seq).KnowledgeGraph(repos)
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 4)
	assert.Equal(t, NodeDocument, graph.Nodes[0].Type)
	assert.Equal(t, NodeConcept, graph.Nodes[1].Type)
	assert.Equal(t, NodeEntity, graph.Nodes[2].Type)
	assert.Equal(t, 26, graph.Nodes[0].Connections)
	assert.Equal(t, 100.0, graph.Nodes[0].Relevance)
	assert.Equal(t, 9.99, graph.Nodes[2].Relevance)

	// 0->1, 0->2, 1->2, 1->3, 2->3
	require.Len(t, graph.Edges, 5)
	assert.Equal(t, Edge{Source: "1", Target: "2", Strength: 25, Kind: "semantic"}, graph.Edges[0])

	assert.Equal(t, GraphStats{TotalNodes: 4, TotalConnections: 5, AvgConnectivity: 34.0 / 4, Clusters: 1}, graph.Stats)

	filtered := graph.Filter("LA")
	require.Len(t, filtered.Nodes, 2)
	assert.Equal(t, "langchain", filtered.Nodes[0].Label)
	require.Len(t, filtered.Edges, 1)
	assert.Equal(t, graph.Stats, filtered.Stats)
	assert.Equal(t, graph, graph.Filter("  "))
}

func TestKnowledgeGraphEmpty(t *testing.T) {
	graph, err := zeroSynth().KnowledgeGraph(nil)
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
	assert.Zero(t, graph.Stats.AvgConnectivity)
}

func TestSecurityOverview(t *testing.T) {
	users := []sources.User{{ID: 1, Name: "Leanne"}, {ID: 2, Name: "Ervin"}}
	posts := []sources.Post{
		{ID: 10, Title: strings.Repeat("x", 60)},
		{ID: 11, Title: "short"},
	}
	seq := &Sequence{Ints: []int{3}, Floats: []float64{0.5}}
	synth := NewSynthesizer(seq, WithNow(func() time.Time { return fixedNow }))
	overview, err := synth.Security(users, posts)
	require.NoError(t, err)

	require.Len(t, overview.Users, 2)
	user := overview.Users[0]
	assert.Equal(t, "Editor", user.Role)
	assert.Equal(t, fixedNow.Add(-84*time.Hour), user.LastAccess)
	assert.Equal(t, []string{"read"}, user.Permissions)
	assert.Equal(t, "active", user.Status)

	require.Len(t, overview.Events, 2)
	event := overview.Events[0]
	assert.Equal(t, "permission", event.Type)
	assert.Equal(t, "Ervin", event.User)
	assert.Equal(t, strings.Repeat("x", 50)+"...", event.Action)
	assert.Equal(t, "short...", overview.Events[1].Action)
	assert.Equal(t, fixedNow.Add(-12*time.Hour), event.Timestamp)
	assert.Equal(t, "critical", event.Severity)
	assert.Equal(t, "Sydney", event.Location)

	assert.Equal(t, map[string]int{"low": 0, "medium": 0, "high": 0, "critical": 2}, overview.Severity)
	assert.Len(t, overview.BySeverity("critical"), 2)
	assert.Empty(t, overview.BySeverity("low"))
	assert.Len(t, overview.BySeverity(""), 2)
}

func TestSecurityRequiresUsersForEvents(t *testing.T) {
	_, err := zeroSynth().Security(nil, []sources.Post{{ID: 1}})
	require.Error(t, err)

	overview, err := zeroSynth().Security(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, overview.Events)
}

func TestTopic(t *testing.T) {
	page := sources.PageSummary{Title: "AI", Extract: "text"}
	page.ContentURLs.Desktop.Page = "https://example.org/AI"
	topic, err := zeroSynth().Topic(page)
	require.NoError(t, err)
	assert.Equal(t, Topic{Title: "AI", Extract: "text", URL: "https://example.org/AI"}, topic)

	_, err = zeroSynth().Topic(sources.PageSummary{})
	require.Error(t, err)
}

func TestUploadAdvancesThroughPipeline(t *testing.T) {
	upload := NewUpload("abc123def", "report.pdf", "application/pdf", 1536, fixedNow)
	assert.Equal(t, "1.5 KB", upload.Size)
	assert.Equal(t, "document", upload.Kind)
	assert.Equal(t, UploadUploading, upload.Status)
	assert.Equal(t, 0, upload.Progress)

	upload = upload.Advance()
	assert.Equal(t, 10, upload.Progress)

	upload = upload.AdvanceBy(9)
	assert.Equal(t, 100, upload.Progress)
	assert.Equal(t, UploadUploading, upload.Status)

	upload = upload.Advance()
	assert.Equal(t, UploadProcessing, upload.Status)
	assert.False(t, upload.Done())

	upload = upload.Advance()
	assert.Equal(t, UploadCompleted, upload.Status)
	assert.True(t, upload.Done())
	assert.Equal(t, upload, upload.Advance())

	fresh := NewUpload("x", "scan.png", "image/png", 10, fixedNow)
	assert.Equal(t, UploadCompleted, fresh.AdvanceBy(UploadSteps).Status)
	assert.Equal(t, UploadProcessing, fresh.AdvanceBy(UploadSteps-1).Status)
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:                   "0 Bytes",
		1023:                "1023 Bytes",
		1024:                "1 KB",
		1536:                "1.5 KB",
		5 << 20:             "5 MB",
		3 << 30:             "3 GB",
		4 << 40:             "4096 GB",
		1024*1024 + 10*1024: "1.01 MB",
	}
	for bytes, want := range cases {
		assert.Equal(t, want, FormatFileSize(bytes), "bytes %d", bytes)
	}
}

func TestFileKind(t *testing.T) {
	assert.Equal(t, "image", FileKind("image/jpeg"))
	assert.Equal(t, "archive", FileKind("application/zip"))
	assert.Equal(t, "archive", FileKind("application/x-archive"))
	assert.Equal(t, "document", FileKind("text/plain"))
	assert.Equal(t, "document", FileKind(""))
}

func TestUploadQueue(t *testing.T) {
	first := NewUpload("a", "a.txt", "text/plain", 1, fixedNow)
	second := NewUpload("b", "b.zip", "application/zip", 2, fixedNow)
	queue := UploadQueue{}.Add(first).Add(second)
	require.Len(t, queue.Uploads, 2)
	assert.Equal(t, "a", queue.Uploads[0].ID)

	next, err := queue.Replace(first.Advance())
	require.NoError(t, err)
	got, ok := next.Upload("a")
	require.True(t, ok)
	assert.Equal(t, 10, got.Progress)
	original, _ := queue.Upload("a")
	assert.Equal(t, 0, original.Progress, "replace copies the queue")

	_, err = queue.Replace(Upload{ID: "missing"})
	assert.ErrorIs(t, err, ErrUploadNotFound)
	assert.Equal(t, map[string]int{UploadUploading: 2}, queue.Counts())
}
