package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DOCINTEL_SERVER_ADDR.
const EnvPrefix = "DOCINTEL"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BasePath:        "/docintel",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090", Runtime: true},
		Sources: SourcesConfig{
			Timeout:   10 * time.Second,
			UserAgent: "go-docintel",
			GitHub: GitHubConfig{
				Endpoint:    Endpoint{BaseURL: "https://api.github.com"},
				Owner:       "microsoft",
				Repo:        "vscode",
				Commits:     6,
				SearchQuery: "artificial intelligence",
				SearchLimit: 20,
			},
			Placeholder: Endpoint{BaseURL: "https://jsonplaceholder.typicode.com"},
			Encyclopedia: Encyclopedia{
				Endpoint: Endpoint{BaseURL: "https://en.wikipedia.org"},
				Topic:    "Artificial intelligence",
			},
		},
		Feeds:    defaultFeeds(),
		Insights: InsightsConfig{Seed: 1},
		Seed:     true,
	}
}

func defaultFeeds() map[string]FeedConfig {
	return map[string]FeedConfig{
		FeedDeployments: {Enabled: true, Interval: 10 * time.Second, Overlap: "skip"},
		FeedModels:      {Enabled: true, Interval: 30 * time.Second, Overlap: "skip"},
		FeedKnowledge:   {Enabled: true, Interval: 60 * time.Second, Overlap: "skip"},
		FeedSecurity:    {Enabled: true, Interval: 30 * time.Second, Overlap: "skip"},
		FeedTopic:       {Enabled: true, Interval: 5 * time.Minute, Overlap: "skip"},
	}
}

// Load reads the YAML file at path over the defaults and applies DOCINTEL_*
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file omits the key.
func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.base_path", def.Server.BasePath)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout.String())
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
	v.SetDefault("metrics.runtime", def.Metrics.Runtime)
	v.SetDefault("sources.offline", def.Sources.Offline)
	v.SetDefault("sources.timeout", def.Sources.Timeout.String())
	v.SetDefault("sources.user_agent", def.Sources.UserAgent)
	v.SetDefault("sources.github.base_url", def.Sources.GitHub.BaseURL)
	v.SetDefault("sources.github.token", def.Sources.GitHub.Token)
	v.SetDefault("sources.github.owner", def.Sources.GitHub.Owner)
	v.SetDefault("sources.github.repo", def.Sources.GitHub.Repo)
	v.SetDefault("sources.github.commits", def.Sources.GitHub.Commits)
	v.SetDefault("sources.github.search_query", def.Sources.GitHub.SearchQuery)
	v.SetDefault("sources.github.search_limit", def.Sources.GitHub.SearchLimit)
	v.SetDefault("sources.placeholder.base_url", def.Sources.Placeholder.BaseURL)
	v.SetDefault("sources.placeholder.token", def.Sources.Placeholder.Token)
	v.SetDefault("sources.encyclopedia.base_url", def.Sources.Encyclopedia.BaseURL)
	v.SetDefault("sources.encyclopedia.token", def.Sources.Encyclopedia.Token)
	v.SetDefault("sources.encyclopedia.topic", def.Sources.Encyclopedia.Topic)
	for name, feed := range def.Feeds {
		v.SetDefault("feeds."+name+".enabled", feed.Enabled)
		v.SetDefault("feeds."+name+".interval", feed.Interval.String())
		v.SetDefault("feeds."+name+".overlap", feed.Overlap)
	}
	v.SetDefault("insights.seed", def.Insights.Seed)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("manifest", def.Manifest)
}
