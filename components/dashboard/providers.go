package dashboard

import "context"

// Static widgets mirror the fixed figures shown on the analytics, search,
// upload and settings tabs.
var defaultProviders = map[string]Provider{
	WidgetSystemMetrics: ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{
			"metrics": []map[string]any{
				{"title": "Query Response Time", "value": "1.2s", "target": "< 2s", "progress": 85, "status": "excellent"},
				{"title": "Accuracy Score", "value": "94.7%", "target": "> 90%", "progress": 95, "status": "excellent"},
				{"title": "System Uptime", "value": "99.9%", "target": "> 99.5%", "progress": 99, "status": "excellent"},
				{"title": "Cost Per Query", "value": "$0.003", "target": "< $0.005", "progress": 78, "status": "good"},
			},
		}, nil
	}),
	WidgetPerformanceTrends: ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{
			"trends": []map[string]any{
				{"label": "Queries/Hour", "value": "1,247", "direction": "up", "change": "12%"},
				{"label": "Documents Processed", "value": "89", "direction": "up", "change": "23%"},
				{"label": "Average Confidence", "value": "91.3%", "direction": "up", "change": "3%"},
				{"label": "Error Rate", "value": "0.12%", "direction": "down", "change": "45%"},
			},
		}, nil
	}),
	WidgetRecentActivity: newRecentActivityProvider(),
	WidgetSearchModes: ProviderFunc(func(_ context.Context, meta WidgetContext) (WidgetData, error) {
		return WidgetData{
			"default_mode": stringValue(meta.Instance.Configuration["default_mode"], "hybrid"),
			"modes": []map[string]any{
				{"code": "semantic", "name": "Semantic", "description": "AI-powered semantic understanding for contextual matches"},
				{"code": "hybrid", "name": "Hybrid", "description": "Combines semantic, keyword, and graph-based search for optimal results"},
				{"code": "graph", "name": "Graph", "description": "Relationship-based search through document knowledge graphs"},
			},
			"filters": []string{"Document Type: All", "Date Range: Any", "Confidence: >85%"},
		}, nil
	}),
	WidgetUploadFormats: ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{
			"formats":       []string{"PDF", "DOCX", "TXT", "Images", "Archives"},
			"max_size_mb":   100,
			"progress_step": 10,
		}, nil
	}),
	WidgetUploadQueue: ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{"uploads": []any{}, "counts": map[string]int{}}, nil
	}),
	WidgetSettings: ProviderFunc(func(_ context.Context, meta WidgetContext) (WidgetData, error) {
		values := defaultSettingValues()
		for key, value := range meta.Instance.Configuration {
			if _, ok := values[key]; ok {
				values[key] = value
			}
		}
		return WidgetData{
			"groups": []map[string]any{
				{"code": "general", "title": "General Configuration", "keys": []string{"system_name", "api_timeout", "max_queries", "debug_mode"}},
				{"code": "performance", "title": "Performance Optimization", "keys": []string{"cache_enabled", "cache_size", "vector_dimensions", "chunk_size", "chunk_overlap"}},
				{"code": "security", "title": "Security Configuration", "keys": []string{"auth_required", "encryption_enabled", "session_timeout", "max_login_attempts"}},
				{"code": "notifications", "title": "Notification Settings", "keys": []string{"email_notifications", "slack_notifications", "webhook_url", "alert_threshold"}},
			},
			"values": values,
		}, nil
	}),
}

func defaultSettingValues() map[string]any {
	return map[string]any{
		"system_name":         "IntelliRAG",
		"api_timeout":         30,
		"max_queries":         10,
		"debug_mode":          false,
		"cache_enabled":       true,
		"cache_size":          1024,
		"vector_dimensions":   1536,
		"chunk_size":          512,
		"chunk_overlap":       50,
		"auth_required":       true,
		"session_timeout":     60,
		"max_login_attempts":  3,
		"encryption_enabled":  true,
		"email_notifications": true,
		"slack_notifications": false,
		"webhook_url":         "",
		"alert_threshold":     95,
	}
}

type activityItem struct {
	Action  string
	Subject string
	Ago     string
}

var recentActivity = []activityItem{
	{Action: "Document processed", Subject: "Financial_Report_Q4.pdf", Ago: "2 min ago"},
	{Action: "Query executed", Subject: "What are the revenue trends?", Ago: "5 min ago"},
	{Action: "Model hot-swapped", Subject: "GPT-4 → Claude-3", Ago: "15 min ago"},
	{Action: "New user registered", Subject: "analyst@company.com", Ago: "32 min ago"},
}

func newRecentActivityProvider() Provider {
	return ProviderFunc(func(_ context.Context, meta WidgetContext) (WidgetData, error) {
		limit := int(float64Value(meta.Instance.Configuration["limit"]))
		if limit <= 0 {
			limit = 10
		}
		if limit > len(recentActivity) {
			limit = len(recentActivity)
		}
		payload := make([]map[string]any, 0, limit)
		for _, item := range recentActivity[:limit] {
			payload = append(payload, map[string]any{
				"action":  item.Action,
				"subject": item.Subject,
				"ago":     item.Ago,
			})
		}
		return WidgetData{"items": payload}, nil
	})
}
