package config

import "time"

// Feed names. Each polled widget has one entry under feeds.
const (
	FeedDeployments = "deployments"
	FeedModels      = "models"
	FeedKnowledge   = "knowledge"
	FeedSecurity    = "security"
	FeedTopic       = "topic"
)

// FeedNames lists every known feed.
var FeedNames = []string{FeedDeployments, FeedModels, FeedKnowledge, FeedSecurity, FeedTopic}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig          `yaml:"server" mapstructure:"server"`
	Logging  LoggingConfig         `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig         `yaml:"metrics" mapstructure:"metrics"`
	Sources  SourcesConfig         `yaml:"sources" mapstructure:"sources"`
	Feeds    map[string]FeedConfig `yaml:"feeds" mapstructure:"feeds"`
	Insights InsightsConfig        `yaml:"insights" mapstructure:"insights"`
	// Seed places the starter widgets on an empty layout.
	Seed bool `yaml:"seed" mapstructure:"seed"`
	// Manifest is an optional widget manifest registered after the built-ins.
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	BasePath        string        `yaml:"base_path" mapstructure:"base_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the operations listener serving /metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Runtime bool   `yaml:"runtime" mapstructure:"runtime"`
}

// SourcesConfig configures the upstream demo APIs.
type SourcesConfig struct {
	// Offline serves built-in fixtures instead of calling the network.
	Offline      bool          `yaml:"offline" mapstructure:"offline"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	GitHub       GitHubConfig  `yaml:"github" mapstructure:"github"`
	Placeholder  Endpoint      `yaml:"placeholder" mapstructure:"placeholder"`
	Encyclopedia Encyclopedia  `yaml:"encyclopedia" mapstructure:"encyclopedia"`
}

// Endpoint is a base URL with optional bearer token.
type Endpoint struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// GitHubConfig selects the repository and search query behind GitHub feeds.
type GitHubConfig struct {
	Endpoint    `yaml:",inline" mapstructure:",squash"`
	Owner       string `yaml:"owner" mapstructure:"owner"`
	Repo        string `yaml:"repo" mapstructure:"repo"`
	Commits     int    `yaml:"commits" mapstructure:"commits"`
	SearchQuery string `yaml:"search_query" mapstructure:"search_query"`
	SearchLimit int    `yaml:"search_limit" mapstructure:"search_limit"`
}

// Encyclopedia selects the featured topic.
type Encyclopedia struct {
	Endpoint `yaml:",inline" mapstructure:",squash"`
	Topic    string `yaml:"topic" mapstructure:"topic"`
}

// FeedConfig tunes one polled widget.
type FeedConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Overlap  string        `yaml:"overlap" mapstructure:"overlap"`
}

// InsightsConfig seeds the synthetic metric generator.
type InsightsConfig struct {
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// Feed returns the configuration of name, falling back to the defaults.
func (c *Config) Feed(name string) FeedConfig {
	if feed, ok := c.Feeds[name]; ok {
		return feed
	}
	return defaultFeeds()[name]
}
