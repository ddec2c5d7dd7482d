package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/gistapi/api/types"
	"github.com/killallgit/gistapi/internal/services/search"
)

// Version is the API version reported at the service root
const Version = "1.0.0"

// Get handles version requests
// @Summary      Service information
// @Tags         health
// @Produce      json
// @Success      200 {object} types.VersionResponse
// @Router       / [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, types.VersionResponse{
			Name:        "Gist Search API",
			Version:     Version,
			Description: "Search a GitHub user's public gists by regular expression",
			Status:      "running",

			PatternSyntax:  search.PatternSyntax,
			SearchEndpoint: "/api/v1/search",
		})
	}
}
