package dashboard

// Tab codes used by the built-in layout.
const (
	TabSearch    = "search"
	TabUpload    = "upload"
	TabAnalytics = "analytics"
	TabKnowledge = "knowledge"
	TabModels    = "models"
	TabHotSwap   = "hotswap"
	TabSecurity  = "security"
	TabSettings  = "settings"
)

// Widget definition codes.
const (
	WidgetSystemMetrics     = "docintel.widget.system_metrics"
	WidgetPerformanceTrends = "docintel.widget.performance_trends"
	WidgetRecentActivity    = "docintel.widget.recent_activity"
	WidgetDeployments       = "docintel.widget.deployments"
	WidgetAIModels          = "docintel.widget.ai_models"
	WidgetKnowledgeGraph    = "docintel.widget.knowledge_graph"
	WidgetSecurityCenter    = "docintel.widget.security_center"
	WidgetSearchModes       = "docintel.widget.search_modes"
	WidgetTopicSummary      = "docintel.widget.topic_summary"
	WidgetUploadFormats     = "docintel.widget.upload_formats"
	WidgetUploadQueue       = "docintel.widget.upload_queue"
	WidgetSettings          = "docintel.widget.settings"
)

var defaultAreaDefinitions = []WidgetAreaDefinition{
	{Code: TabSearch, Name: "Query Engine", Description: "Intelligent document search", Icon: "search"},
	{Code: TabUpload, Name: "Document Hub", Description: "Upload & process documents", Icon: "upload"},
	{Code: TabAnalytics, Name: "Analytics", Description: "Performance metrics", Icon: "bar-chart"},
	{Code: TabKnowledge, Name: "Knowledge Graph", Description: "Document relationships", Icon: "database"},
	{Code: TabModels, Name: "AI Models", Description: "Model management", Icon: "brain"},
	{Code: TabHotSwap, Name: "Hot Swap", Description: "Zero-downtime updates", Icon: "zap"},
	{Code: TabSecurity, Name: "Security", Description: "Access & permissions", Icon: "shield"},
	{Code: TabSettings, Name: "Settings", Description: "System configuration", Icon: "settings"},
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:        WidgetSystemMetrics,
		Name:        "System Metrics",
		Description: "Response time, accuracy, uptime and cost against targets",
		Category:    "analytics",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetPerformanceTrends,
		Name:        "Performance Trends",
		Description: "Hourly query volume and quality trends",
		Category:    "analytics",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetRecentActivity,
		Name:        "Recent Activity",
		Description: "Latest processing and query events",
		Category:    "activity",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "default": 10},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:        WidgetDeployments,
		Name:        "Hot Swap Deployments",
		Description: "Zero-downtime component rollouts and system health",
		Category:    "operations",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chart": map[string]any{"type": "boolean", "default": true},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:        WidgetAIModels,
		Name:        "AI Models",
		Description: "Model inventory, status and cost",
		Category:    "models",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetKnowledgeGraph,
		Name:        "Knowledge Graph",
		Description: "Document, concept and entity relationships",
		Category:    "knowledge",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filter": map[string]any{"type": "string", "maxLength": 120},
				"chart":  map[string]any{"type": "boolean", "default": true},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:        WidgetSecurityCenter,
		Name:        "Security Center",
		Description: "Users, access events and alert severity",
		Category:    "security",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"severity": map[string]any{"type": "string", "enum": []string{"low", "medium", "high", "critical"}},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:        WidgetSearchModes,
		Name:        "Search Modes",
		Description: "Semantic, hybrid and graph query modes",
		Category:    "search",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"default_mode": map[string]any{"type": "string", "enum": []string{"semantic", "hybrid", "graph"}, "default": "hybrid"},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:        WidgetTopicSummary,
		Name:        "Topic Summary",
		Description: "Encyclopedia summary for the featured topic",
		Category:    "search",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetUploadFormats,
		Name:        "Supported Formats",
		Description: "Accepted document types and size limits",
		Category:    "upload",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetUploadQueue,
		Name:        "Upload Queue",
		Description: "Progress of documents moving through upload and processing",
		Category:    "upload",
		Schema:      map[string]any{"type": "object", "additionalProperties": false},
	},
	{
		Code:        WidgetSettings,
		Name:        "System Settings",
		Description: "General, performance, security and notification settings",
		Category:    "settings",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"system_name":        map[string]any{"type": "string", "minLength": 1},
				"api_timeout":        map[string]any{"type": "integer", "minimum": 1, "maximum": 300},
				"max_queries":        map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
				"debug_mode":         map[string]any{"type": "boolean"},
				"cache_enabled":      map[string]any{"type": "boolean"},
				"cache_size":         map[string]any{"type": "integer", "minimum": 64},
				"vector_dimensions":  map[string]any{"type": "integer", "enum": []int{384, 768, 1536, 3072}},
				"chunk_size":         map[string]any{"type": "integer", "minimum": 128, "maximum": 2048},
				"chunk_overlap":      map[string]any{"type": "integer", "minimum": 0, "maximum": 200},
				"session_timeout":    map[string]any{"type": "integer", "minimum": 5},
				"max_login_attempts": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
				"alert_threshold":    map[string]any{"type": "integer", "minimum": 50, "maximum": 100},
				"webhook_url":        map[string]any{"type": "string"},
			},
			"additionalProperties": false,
		},
	},
}

var defaultSeedConfigs = []AddWidgetRequest{
	{DefinitionID: WidgetSearchModes, AreaCode: TabSearch, Configuration: map[string]any{"default_mode": "hybrid"}},
	{DefinitionID: WidgetTopicSummary, AreaCode: TabSearch},
	{DefinitionID: WidgetUploadFormats, AreaCode: TabUpload},
	{DefinitionID: WidgetUploadQueue, AreaCode: TabUpload},
	{DefinitionID: WidgetSystemMetrics, AreaCode: TabAnalytics},
	{DefinitionID: WidgetPerformanceTrends, AreaCode: TabAnalytics},
	{DefinitionID: WidgetRecentActivity, AreaCode: TabAnalytics, Configuration: map[string]any{"limit": 10}},
	{DefinitionID: WidgetKnowledgeGraph, AreaCode: TabKnowledge, Configuration: map[string]any{"chart": true}},
	{DefinitionID: WidgetAIModels, AreaCode: TabModels},
	{DefinitionID: WidgetDeployments, AreaCode: TabHotSwap, Configuration: map[string]any{"chart": true}},
	{DefinitionID: WidgetSecurityCenter, AreaCode: TabSecurity},
	{DefinitionID: WidgetSettings, AreaCode: TabSettings},
}

// DefaultAreaDefinitions returns copies of the built-in tabs in display order.
func DefaultAreaDefinitions() []WidgetAreaDefinition {
	out := make([]WidgetAreaDefinition, len(defaultAreaDefinitions))
	copy(out, defaultAreaDefinitions)
	return out
}

// DefaultWidgetDefinitions returns copies of built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultSeedWidgets returns the starter widget placements.
func DefaultSeedWidgets() []AddWidgetRequest {
	out := make([]AddWidgetRequest, len(defaultSeedConfigs))
	for i, cfg := range defaultSeedConfigs {
		copyCfg := cfg
		if cfg.Configuration != nil {
			copyCfg.Configuration = make(map[string]any, len(cfg.Configuration))
			for k, v := range cfg.Configuration {
				copyCfg.Configuration[k] = v
			}
		}
		out[i] = copyCfg
	}
	return out
}

func defaultAreaCodes() []string {
	codes := make([]string, len(defaultAreaDefinitions))
	for i, area := range defaultAreaDefinitions {
		codes[i] = area.Code
	}
	return codes
}
