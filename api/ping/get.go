package ping

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles liveness checks
// @Summary      Liveness check
// @Description  Always answers pong
// @Tags         health
// @Produce      plain
// @Success      200 {string} string "pong"
// @Router       /ping [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}
}
