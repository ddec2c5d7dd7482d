package ping

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the liveness route
func RegisterRoutes(engine *gin.Engine) {
	engine.GET("/ping", Get())
}
