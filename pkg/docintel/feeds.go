package docintel

import (
	"context"
	"fmt"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/poll"
	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/insights"
	"github.com/goliatone/go-docintel/pkg/sources"
)

const securityPostLimit = 10

type securityPayload struct {
	users []sources.User
	posts []sources.Post
}

type feedBuilder struct {
	cfg    *config.Config
	client sources.Client
	synth  *insights.Synthesizer
	charts *dashboard.ChartRenderer
}

func feedSettings(cfg *config.Config, name string) (config.FeedConfig, poll.OverlapPolicy, error) {
	feed := cfg.Feed(name)
	policy, ok := poll.ParseOverlapPolicy(feed.Overlap)
	if !ok {
		return feed, policy, fmt.Errorf("docintel: feed %s has unknown overlap %q", name, feed.Overlap)
	}
	return feed, policy, nil
}

func (b feedBuilder) deployments() (*dashboard.Feed[[]sources.Commit, insights.DeploymentBoard], error) {
	settings, policy, err := feedSettings(b.cfg, config.FeedDeployments)
	if err != nil {
		return nil, err
	}
	gh := b.cfg.Sources.GitHub
	return dashboard.NewFeed(dashboard.FeedConfig[[]sources.Commit, insights.DeploymentBoard]{
		Code:     dashboard.WidgetDeployments,
		AreaCode: dashboard.TabHotSwap,
		Interval: settings.Interval,
		Overlap:  policy,
		Fetch: func(ctx context.Context) ([]sources.Commit, error) {
			return b.client.ListCommits(ctx, gh.Owner, gh.Repo, gh.Commits)
		},
		Transform:     b.synth.Deployments,
		Render:        b.renderDeployments,
		Configuration: map[string]any{"chart": true},
	})
}

func (b feedBuilder) renderDeployments(_ context.Context, board insights.DeploymentBoard, meta dashboard.WidgetContext) (dashboard.WidgetData, error) {
	data := dashboard.WidgetData{
		"deployments": board.Deployments,
		"health":      board.Health,
	}
	if active, ok := board.Active(); ok {
		data["active"] = active
	}
	if dashboard.BoolValue(meta.Instance.Configuration["chart"]) && len(board.Deployments) > 0 {
		labels, values := board.Throughput()
		html, err := b.charts.RenderBar(dashboard.WidgetDeployments, "Throughput", "requests per minute", labels,
			[]dashboard.ChartSeries{{Name: "throughput", Values: values}})
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
	}
	return data, nil
}

func (b feedBuilder) models() (*dashboard.Feed[[]sources.User, insights.ModelFleet], error) {
	settings, policy, err := feedSettings(b.cfg, config.FeedModels)
	if err != nil {
		return nil, err
	}
	return dashboard.NewFeed(dashboard.FeedConfig[[]sources.User, insights.ModelFleet]{
		Code:      dashboard.WidgetAIModels,
		AreaCode:  dashboard.TabModels,
		Interval:  settings.Interval,
		Overlap:   policy,
		Fetch:     b.client.ListUsers,
		Transform: b.synth.Models,
		Render: func(_ context.Context, fleet insights.ModelFleet, _ dashboard.WidgetContext) (dashboard.WidgetData, error) {
			return dashboard.WidgetData{"models": fleet.Models, "stats": fleet.Stats}, nil
		},
	})
}

func (b feedBuilder) knowledge() (*dashboard.Feed[[]sources.Repository, insights.KnowledgeGraph], error) {
	settings, policy, err := feedSettings(b.cfg, config.FeedKnowledge)
	if err != nil {
		return nil, err
	}
	gh := b.cfg.Sources.GitHub
	return dashboard.NewFeed(dashboard.FeedConfig[[]sources.Repository, insights.KnowledgeGraph]{
		Code:     dashboard.WidgetKnowledgeGraph,
		AreaCode: dashboard.TabKnowledge,
		Interval: settings.Interval,
		Overlap:  policy,
		Fetch: func(ctx context.Context) ([]sources.Repository, error) {
			return b.client.SearchRepositories(ctx, gh.SearchQuery, gh.SearchLimit)
		},
		Transform:     b.synth.KnowledgeGraph,
		Render:        b.renderKnowledge,
		Configuration: map[string]any{"chart": true},
	})
}

func (b feedBuilder) renderKnowledge(_ context.Context, graph insights.KnowledgeGraph, meta dashboard.WidgetContext) (dashboard.WidgetData, error) {
	filter := dashboard.StringValue(meta.Instance.Configuration["filter"], "")
	view := graph.Filter(filter)
	data := dashboard.WidgetData{
		"nodes": view.Nodes,
		"edges": view.Edges,
		"stats": view.Stats,
	}
	if filter != "" {
		data["filter"] = filter
	}
	if dashboard.BoolValue(meta.Instance.Configuration["chart"]) && len(view.Nodes) > 0 {
		html, err := b.charts.RenderGraph(dashboard.WidgetKnowledgeGraph, "Knowledge Graph", graphNodes(view.Nodes), graphLinks(view))
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
	}
	return data, nil
}

func graphNodes(nodes []insights.Node) []dashboard.GraphNode {
	out := make([]dashboard.GraphNode, len(nodes))
	for i, n := range nodes {
		out[i] = dashboard.GraphNode{
			Name:     n.Label,
			Value:    n.Relevance,
			Category: n.Type,
			Size:     min(60, 8+float64(n.Connections)),
		}
	}
	return out
}

func graphLinks(graph insights.KnowledgeGraph) []dashboard.GraphLink {
	labels := make(map[string]string, len(graph.Nodes))
	for _, n := range graph.Nodes {
		labels[n.ID] = n.Label
	}
	out := make([]dashboard.GraphLink, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		out = append(out, dashboard.GraphLink{Source: labels[e.Source], Target: labels[e.Target], Value: e.Strength})
	}
	return out
}

func (b feedBuilder) security() (*dashboard.Feed[securityPayload, insights.SecurityOverview], error) {
	settings, policy, err := feedSettings(b.cfg, config.FeedSecurity)
	if err != nil {
		return nil, err
	}
	return dashboard.NewFeed(dashboard.FeedConfig[securityPayload, insights.SecurityOverview]{
		Code:     dashboard.WidgetSecurityCenter,
		AreaCode: dashboard.TabSecurity,
		Interval: settings.Interval,
		Overlap:  policy,
		Fetch: func(ctx context.Context) (securityPayload, error) {
			users, err := b.client.ListUsers(ctx)
			if err != nil {
				return securityPayload{}, err
			}
			posts, err := b.client.ListPosts(ctx, securityPostLimit)
			if err != nil {
				return securityPayload{}, err
			}
			return securityPayload{users: users, posts: posts}, nil
		},
		Transform: func(p securityPayload) (insights.SecurityOverview, error) {
			return b.synth.Security(p.users, p.posts)
		},
		Render: func(_ context.Context, overview insights.SecurityOverview, meta dashboard.WidgetContext) (dashboard.WidgetData, error) {
			severity := dashboard.StringValue(meta.Instance.Configuration["severity"], "")
			return dashboard.WidgetData{
				"users":    overview.Users,
				"events":   overview.BySeverity(severity),
				"severity": overview.Severity,
			}, nil
		},
	})
}

func (b feedBuilder) topic() (*dashboard.Feed[sources.PageSummary, insights.Topic], error) {
	settings, policy, err := feedSettings(b.cfg, config.FeedTopic)
	if err != nil {
		return nil, err
	}
	title := b.cfg.Sources.Encyclopedia.Topic
	return dashboard.NewFeed(dashboard.FeedConfig[sources.PageSummary, insights.Topic]{
		Code:     dashboard.WidgetTopicSummary,
		AreaCode: dashboard.TabSearch,
		Interval: settings.Interval,
		Overlap:  policy,
		Fetch: func(ctx context.Context) (sources.PageSummary, error) {
			return b.client.PageSummary(ctx, title)
		},
		Transform: b.synth.Topic,
		Render: func(_ context.Context, topic insights.Topic, _ dashboard.WidgetContext) (dashboard.WidgetData, error) {
			return dashboard.WidgetData{
				"title":       topic.Title,
				"description": topic.Description,
				"extract":     topic.Extract,
				"url":         topic.URL,
			}, nil
		},
	})
}

type feedMeta struct {
	code    string
	summary string
	source  string
}

var feedCatalog = map[string]feedMeta{
	config.FeedDeployments: {dashboard.WidgetDeployments, "Commits reshaped into component rollouts", "github.commits"},
	config.FeedModels:      {dashboard.WidgetAIModels, "Placeholder users reshaped into a model fleet", "placeholder.users"},
	config.FeedKnowledge:   {dashboard.WidgetKnowledgeGraph, "Repository search reshaped into a relationship graph", "github.search"},
	config.FeedSecurity:    {dashboard.WidgetSecurityCenter, "Users and posts reshaped into accounts and audit events", "placeholder.users+posts"},
	config.FeedTopic:       {dashboard.WidgetTopicSummary, "Encyclopedia page summary", "encyclopedia.summary"},
}

// WidgetCode returns the widget code a feed publishes to. Widget codes are
// returned unchanged.
func WidgetCode(name string) (string, bool) {
	if meta, ok := feedCatalog[name]; ok {
		return meta.code, true
	}
	for _, meta := range feedCatalog {
		if meta.code == name {
			return name, true
		}
	}
	return "", false
}

// feedManifest describes the polled widgets for the manifest.
func feedManifest(cfg *config.Config, reg *dashboard.Registry) *dashboard.WidgetManifestDocument {
	doc := &dashboard.WidgetManifestDocument{Version: dashboard.ManifestVersion, Name: "docintel-feeds", Source: "builtin"}
	for _, name := range config.FeedNames {
		feed := cfg.Feed(name)
		meta := feedCatalog[name]
		def, ok := reg.Definition(meta.code)
		if !feed.Enabled || !ok {
			continue
		}
		doc.Widgets = append(doc.Widgets, dashboard.ManifestWidget{
			Definition: def,
			Provider: dashboard.ManifestProvider{
				Name:         name,
				Summary:      meta.summary,
				Source:       meta.source,
				Interval:     feed.Interval.String(),
				Capabilities: []string{"poll", "push"},
			},
		})
	}
	return doc
}
