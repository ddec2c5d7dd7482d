package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencies(t *testing.T) {
	deps := &Dependencies{}

	// Test that we can create empty dependencies
	assert.NotNil(t, deps)
	assert.Nil(t, deps.Searcher)
	assert.Nil(t, deps.Metrics)
	assert.Empty(t, deps.UpstreamBaseURL)
}

func TestSendAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
		expectDetails   bool
	}{
		{
			name:            "schema mismatch",
			err:             apperrors.SchemaError([]string{"username", "pattern"}, "unknown key"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "SCHEMA_MISMATCH",
			expectedMessage: "request must have exactly keys ['username', 'pattern']",
			expectDetails:   true,
		},
		{
			name:            "user not found",
			err:             apperrors.UserNotFoundError("ghost", "Not Found"),
			expectedStatus:  http.StatusNotFound,
			expectedCode:    "USER_NOT_FOUND",
			expectedMessage: "username ghost: Not Found",
			expectDetails:   true,
		},
		{
			name:            "upstream failure",
			err:             apperrors.New(apperrors.ErrCodeUpstreamUnavailable, "upstream list gists failed"),
			expectedStatus:  http.StatusBadGateway,
			expectedCode:    "UPSTREAM_UNAVAILABLE",
			expectedMessage: "upstream list gists failed",
		},
		{
			name:            "plain error is internal",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "INTERNAL",
			expectedMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)

			SendAppError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, StatusError, response.Status)
			assert.Equal(t, tt.expectedCode, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
			if tt.expectDetails {
				assert.NotNil(t, response.Details)
			} else {
				assert.Nil(t, response.Details)
			}
		})
	}
}
