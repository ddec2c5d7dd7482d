package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/killallgit/gistapi/internal/metrics"
	"github.com/killallgit/gistapi/internal/models"
	"github.com/killallgit/gistapi/internal/services/gists"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxConcurrency is the number of gists processed at once
	DefaultMaxConcurrency = 4
	// DefaultMatchTimeout bounds a single pattern match
	DefaultMatchTimeout = 2 * time.Second
)

// errSearchTimeout is the cancellation cause when the search-wide timeout fires
var errSearchTimeout = errors.New("search timeout")

// Service implements Searcher on top of a SnippetClient
type Service struct {
	client         SnippetClient
	metrics        *metrics.Metrics
	maxConcurrency int
	timeout        time.Duration
	matchTimeout   time.Duration
	dedupe         bool
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithMaxConcurrency sets how many gists are fetched in parallel. 1 is fully sequential.
func WithMaxConcurrency(max int) ServiceOption {
	return func(s *Service) {
		if max > 0 {
			s.maxConcurrency = max
		}
	}
}

// WithTimeout bounds a whole search, including every upstream call
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithMatchTimeout bounds each pattern match
func WithMatchTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.matchTimeout = timeout
		}
	}
}

// WithDedupe collapses repeated match URLs for the same gist
func WithDedupe(dedupe bool) ServiceOption {
	return func(s *Service) {
		s.dedupe = dedupe
	}
}

// WithMetrics records search outcomes
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new search service with optional configuration
func NewService(client SnippetClient, opts ...ServiceOption) *Service {
	s := &Service{
		client:         client,
		maxConcurrency: DefaultMaxConcurrency,
		matchTimeout:   DefaultMatchTimeout,
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// snippetOutcome is what one gist contributed to a search
type snippetOutcome struct {
	matches []string
	failure error
}

// Search lists the user's gists and reports which ones match pattern.
// Gists that cannot be fetched mark the result as failed without aborting;
// lookup, pattern and transport errors abort the whole search.
func (s *Service) Search(ctx context.Context, username, pattern string) (*models.SearchResult, error) {
	start := time.Now()

	result, err := s.search(ctx, username, pattern)
	if err != nil {
		s.metrics.ObserveSearch("error", time.Since(start), 0)
		return nil, err
	}

	s.metrics.ObserveSearch(result.Status, time.Since(start), len(result.Matches))
	return result, nil
}

func (s *Service) search(ctx context.Context, username, pattern string) (*models.SearchResult, error) {
	matcher, err := CompilePattern(pattern, s.matchTimeout)
	if err != nil {
		return nil, apperrors.InvalidPatternError(pattern, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, s.timeout, errSearchTimeout)
		defer cancel()
	}

	snippets, err := s.client.ListSnippets(ctx, username)
	if err != nil {
		return nil, s.classify(ctx, username, err)
	}

	log.Debug().Str("username", username).Int("gists", len(snippets)).Msg("Searching gists")

	// Each gist owns one slot so the final order follows the list order
	// regardless of completion order.
	outcomes := make([]snippetOutcome, len(snippets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i := range snippets {
		g.Go(func() error {
			outcome, err := s.searchSnippet(gctx, username, &snippets[i], matcher)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.classify(ctx, username, err)
	}

	result := models.NewSearchResult(username, pattern)
	var failures *multierror.Error
	for _, outcome := range outcomes {
		if outcome.failure != nil {
			result.MarkFailed()
			failures = multierror.Append(failures, outcome.failure)
		}
		result.Matches = append(result.Matches, outcome.matches...)
	}

	if s.dedupe {
		result.Matches = dedupe(result.Matches)
	}

	if failures != nil {
		log.Warn().
			Err(failures.ErrorOrNil()).
			Str("username", username).
			Int("failed", failures.Len()).
			Int("gists", len(snippets)).
			Msg("Some gists could not be fetched")
	}

	return result, nil
}

// searchSnippet fetches one gist, matches its detail body and then every
// truncated file. A returned error aborts the search; a non-success detail
// status is reported through the outcome instead.
func (s *Service) searchSnippet(ctx context.Context, username string, snippet *models.Snippet, matcher *Matcher) (snippetOutcome, error) {
	var outcome snippetOutcome

	detail, err := s.client.FetchSnippetDetail(ctx, snippet.URL)
	if err != nil {
		return outcome, err
	}

	if !detail.OK() {
		outcome.failure = fmt.Errorf("gist %s: upstream status %d", snippet.ID, detail.StatusCode)
		return outcome, nil
	}

	matchURL := MatchURL(snippet.HTMLURL, snippet.ID, username)

	if matcher.Match(detail.Body) {
		outcome.matches = append(outcome.matches, matchURL)
	}

	if detail.Snippet == nil {
		return outcome, nil
	}

	for _, file := range detail.Snippet.TruncatedFiles() {
		content, err := s.client.FetchRawFile(ctx, file.RawURL)
		if err != nil {
			var statusErr *gists.StatusError
			if errors.As(err, &statusErr) {
				outcome.failure = multierror.Append(outcome.failure, fmt.Errorf("gist %s file %s: %w", snippet.ID, file.Filename, err))
				continue
			}
			return outcome, err
		}

		if matcher.Match(content) {
			outcome.matches = append(outcome.matches, matchURL)
		}
	}

	return outcome, nil
}

// classify maps client errors onto the application error taxonomy. ctx is
// the search context, used to tell the search timeout from a request timeout.
func (s *Service) classify(ctx context.Context, username string, err error) error {
	var lookupErr *gists.UserLookupError
	if errors.As(err, &lookupErr) {
		return apperrors.UserNotFoundError(username, lookupErr.Message).
			WithDetail("upstream_status", lookupErr.StatusCode)
	}

	var transportErr *gists.TransportError
	isTransport := errors.As(err, &transportErr)

	if errors.Is(err, context.DeadlineExceeded) {
		if errors.Is(context.Cause(ctx), errSearchTimeout) {
			return apperrors.TimeoutError("search", s.timeout.String()).WithCause(err)
		}
		op := "request"
		if isTransport {
			op = transportErr.Op
		}
		return apperrors.Newf(apperrors.ErrCodeUpstreamTimeout, "upstream %s timed out", op).
			WithDetail("operation", op).
			WithCause(err)
	}

	if isTransport {
		return apperrors.UpstreamError(transportErr.Op, err)
	}

	return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "search for %s failed", username)
}

// MatchURL builds the user-facing URL of a matching gist by replacing the
// first occurrence of id in htmlURL with "username/id".
func MatchURL(htmlURL, id, username string) string {
	if id == "" {
		return htmlURL
	}
	return strings.Replace(htmlURL, id, username+"/"+id, 1)
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
