package search

import (
	"context"

	"github.com/killallgit/gistapi/internal/models"
	"github.com/killallgit/gistapi/internal/services/gists"
)

// SnippetClient defines the upstream operations the search engine needs
type SnippetClient interface {
	ListSnippets(ctx context.Context, username string) ([]models.Snippet, error)
	FetchSnippetDetail(ctx context.Context, detailURL string) (*gists.SnippetDetail, error)
	FetchRawFile(ctx context.Context, rawURL string) ([]byte, error)
}

// Searcher defines the business logic interface for gist searches
type Searcher interface {
	Search(ctx context.Context, username, pattern string) (*models.SearchResult, error)
}
