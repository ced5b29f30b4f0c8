package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartSeries is one legend entry of a bar chart.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// GraphNode is a vertex of a rendered relationship graph.
type GraphNode struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
	Size     float64 `json:"size,omitempty"`
}

// GraphLink connects two nodes by name.
type GraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value,omitempty"`
}

// ChartRenderer renders server-side go-echarts markup for widget payloads.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the chart theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer backed by the shared cache unless overridden.
func NewChartRenderer(opts ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Theme returns the configured chart theme.
func (r *ChartRenderer) Theme() string {
	return r.theme
}

// RenderBar renders a bar chart with one bar group per label.
func (r *ChartRenderer) RenderBar(key, title, subtitle string, labels []string, series []ChartSeries) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("dashboard: chart %s requires at least one series", key)
	}
	return r.cached("bar", key, []any{title, subtitle, labels, series}, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(title, subtitle)...)
		bar.SetXAxis(labels)
		for _, s := range series {
			bar.AddSeries(s.Name, toBarData(labels, s.Values))
		}
		return renderChart(bar)
	})
}

// RenderGraph renders a force-directed graph. Categories are derived from the nodes in order of appearance.
func (r *ChartRenderer) RenderGraph(key, title string, nodes []GraphNode, links []GraphLink) (string, error) {
	return r.cached("graph", key, []any{title, nodes, links}, func() (string, error) {
		categories, index := graphCategories(nodes)
		graph := charts.NewGraph()
		graph.SetGlobalOptions(r.globalOptions(title, "")...)
		graph.AddSeries(title, toGraphNodes(nodes, index), toGraphLinks(links),
			charts.WithGraphChartOpts(opts.GraphChart{
				Layout:     "force",
				Roam:       opts.Bool(true),
				Force:      &opts.GraphForce{Repulsion: 240},
				Categories: categories,
			}),
		)
		return renderChart(graph)
	})
}

func (r *ChartRenderer) cached(kind, key string, input any, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrRender(fmt.Sprintf("%s:%s:%s:%s", kind, key, r.theme, contentHash(input)), render)
}

func (r *ChartRenderer) globalOptions(title, subtitle string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("dashboard: render chart: %w", err)
	}
	return buf.String(), nil
}

func toBarData(labels []string, values []float64) []opts.BarData {
	data := make([]opts.BarData, len(values))
	for i, value := range values {
		name := ""
		if i < len(labels) {
			name = labels[i]
		}
		data[i] = opts.BarData{Name: name, Value: value}
	}
	return data
}

func graphCategories(nodes []GraphNode) ([]*opts.GraphCategory, map[string]int) {
	index := map[string]int{}
	var out []*opts.GraphCategory
	for _, node := range nodes {
		if node.Category == "" {
			continue
		}
		if _, ok := index[node.Category]; ok {
			continue
		}
		index[node.Category] = len(out)
		out = append(out, &opts.GraphCategory{Name: node.Category})
	}
	return out, index
}

func toGraphNodes(nodes []GraphNode, categories map[string]int) []opts.GraphNode {
	out := make([]opts.GraphNode, len(nodes))
	for i, node := range nodes {
		size := node.Size
		if size <= 0 {
			size = 12
		}
		category := categories[node.Category]
		out[i] = opts.GraphNode{
			Name:       node.Name,
			Value:      float32(node.Value),
			Category:   category,
			SymbolSize: size,
		}
	}
	return out
}

func toGraphLinks(links []GraphLink) []opts.GraphLink {
	out := make([]opts.GraphLink, len(links))
	for i, link := range links {
		out[i] = opts.GraphLink{
			Source: link.Source,
			Target: link.Target,
			Value:  float32(link.Value),
		}
	}
	return out
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}

// BoolValue reads loosely typed widget configuration flags.
func BoolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}

// StringValue reads a string widget configuration value or returns fallback.
func StringValue(v any, fallback string) string {
	return stringValue(v, fallback)
}
