package search

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/gistapi/api/types"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Post handles gist search requests
// @Summary      Search a user's gists
// @Description  Lists the public gists of a GitHub user and returns the URL of every gist whose content matches the pattern. Truncated files are fetched in full before matching. A status of "failure" means at least one gist could not be fetched; matches from the other gists are still returned.
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body models.SearchRequest true "Username and pattern"
// @Success      200 {object} models.SearchResult "Search result"
// @Failure      400 {object} types.ErrorResponse "Bad request - wrong keys, non-string values or invalid pattern"
// @Failure      404 {object} types.ErrorResponse "Unknown user"
// @Failure      429 {object} types.ErrorResponse "Too many requests"
// @Failure      502 {object} types.ErrorResponse "Upstream unavailable"
// @Failure      504 {object} types.ErrorResponse "Upstream timed out"
// @Router       /api/v1/search [post]
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := DecodeRequest(c.Request.Body)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		if deps == nil || deps.Searcher == nil {
			types.SendAppError(c, apperrors.New(apperrors.ErrCodeInternal, "search service not available"))
			return
		}

		result, err := deps.Searcher.Search(c.Request.Context(), req.Username, req.Pattern)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		log.Info().
			Str("username", result.Username).
			Str("status", result.Status).
			Int("matches", len(result.Matches)).
			Msg("Search completed")

		types.SendSuccess(c, result)
	}
}
