package docintel

import (
	"fmt"

	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/sources"
)

// remoteClient joins the per-host clients into one sources.Client.
type remoteClient struct {
	*sources.GitHubClient
	*sources.PlaceholderClient
	*sources.EncyclopediaClient
}

// NewSourceClient builds the upstream client described by cfg. Offline
// configurations get the built-in fixtures.
func NewSourceClient(cfg config.SourcesConfig) (sources.Client, error) {
	if cfg.Offline {
		return sources.NewMockClient(sources.DemoData()), nil
	}
	endpoint := func(e config.Endpoint) sources.HTTPConfig {
		return sources.HTTPConfig{
			BaseURL:   e.BaseURL,
			Token:     e.Token,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}
	}
	github, err := sources.NewGitHubClient(endpoint(cfg.GitHub.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("docintel: github source: %w", err)
	}
	placeholder, err := sources.NewPlaceholderClient(endpoint(cfg.Placeholder))
	if err != nil {
		return nil, fmt.Errorf("docintel: placeholder source: %w", err)
	}
	encyclopedia, err := sources.NewEncyclopediaClient(endpoint(cfg.Encyclopedia.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("docintel: encyclopedia source: %w", err)
	}
	return remoteClient{github, placeholder, encyclopedia}, nil
}
