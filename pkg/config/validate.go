package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-docintel/components/poll"
)

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("config: server.shutdown_timeout must not be negative"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("config: metrics.addr is required when metrics are enabled"))
	}
	if !c.Sources.Offline {
		for name, url := range map[string]string{
			"github":       c.Sources.GitHub.BaseURL,
			"placeholder":  c.Sources.Placeholder.BaseURL,
			"encyclopedia": c.Sources.Encyclopedia.BaseURL,
		} {
			if url == "" {
				errs = append(errs, fmt.Errorf("config: sources.%s.base_url is required", name))
			}
		}
	}
	names := make([]string, 0, len(c.Feeds))
	for name := range c.Feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		feed := c.Feeds[name]
		if !feed.Enabled {
			continue
		}
		if feed.Interval <= 0 {
			errs = append(errs, fmt.Errorf("config: feeds.%s.interval must be positive", name))
		}
		if _, ok := poll.ParseOverlapPolicy(feed.Overlap); !ok {
			errs = append(errs, fmt.Errorf("config: feeds.%s.overlap %q is not skip or replace", name, feed.Overlap))
		}
	}
	return errors.Join(errs...)
}
