package types

import (
	"github.com/killallgit/gistapi/internal/metrics"
	"github.com/killallgit/gistapi/internal/services/search"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	Searcher search.Searcher
	Metrics  *metrics.Metrics

	// UpstreamBaseURL is reported by the health check
	UpstreamBaseURL string
}
