package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/gistapi/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports service status and the configured gists API
// @Tags         health
// @Produce      json
// @Success      200 {object} types.HealthResponse
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := types.HealthResponse{
			Status:    types.StatusOK,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Upstream:  getUpstreamStatus(deps),
		}

		c.JSON(http.StatusOK, response)
	}
}

// getUpstreamStatus returns the upstream configuration
func getUpstreamStatus(deps *types.Dependencies) types.UpstreamStatus {
	if deps == nil || deps.UpstreamBaseURL == "" {
		return types.UpstreamStatus{BaseURL: "not configured"}
	}
	return types.UpstreamStatus{BaseURL: deps.UpstreamBaseURL}
}
