package cmd

import (
	"fmt"

	"github.com/killallgit/gistapi/internal/metrics"
	"github.com/killallgit/gistapi/internal/services/gists"
	"github.com/killallgit/gistapi/internal/services/search"
	"github.com/killallgit/gistapi/pkg/config"
)

// newSearchService builds the gists client and the search engine from cfg.
// m may be nil.
func newSearchService(cfg *config.Config, m *metrics.Metrics) (*search.Service, *gists.Client, error) {
	client, err := gists.NewClient(gists.Config{
		BaseURL:   cfg.GitHub.BaseURL,
		Token:     cfg.GitHub.Token,
		Timeout:   cfg.GitHub.Timeout,
		UserAgent: cfg.GitHub.UserAgent,
		Metrics:   m,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gists client: %w", err)
	}

	service := search.NewService(
		client,
		search.WithMaxConcurrency(cfg.Search.MaxConcurrency),
		search.WithTimeout(cfg.Search.Timeout),
		search.WithMatchTimeout(cfg.Search.MatchTimeout),
		search.WithDedupe(cfg.Search.DedupeMatches),
		search.WithMetrics(m),
	)

	return service, client, nil
}
