package types

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Handler utility functions to reduce duplication across handlers

// SendAppError writes err as an ErrorResponse with the status its code maps to.
// Errors that are not AppErrors are reported as internal errors without details.
func SendAppError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.GetHTTPCode()

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("code", string(appErr.Code)).
		Int("status", status).
		Str("path", c.Request.URL.Path).
		Msg("Request failed")

	response := ErrorResponse{
		Status:  StatusError,
		Message: appErr.Message,
		Error:   string(appErr.Code),
	}
	if len(appErr.Details) > 0 {
		response.Details = appErr.Details
	}

	c.AbortWithStatusJSON(status, response)
}

// SendNotFound sends a standardized not found response naming the requested path
func SendNotFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
		Status:  StatusError,
		Message: message,
		Error:   "NOT_FOUND",
		Details: gin.H{"path": c.Request.URL.Path},
	})
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
