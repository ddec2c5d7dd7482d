package types

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status" example:"error"`
	Message string      `json:"message" example:"request must have exactly keys ['username', 'pattern']"`
	Error   string      `json:"error,omitempty" example:"SCHEMA_MISMATCH"` // Error code/type
	Details interface{} `json:"details,omitempty"`                         // Additional error details
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	Status    string         `json:"status" example:"ok"`
	Timestamp string         `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Upstream  UpstreamStatus `json:"upstream"`
}

// UpstreamStatus describes the configured gists API
type UpstreamStatus struct {
	BaseURL string `json:"base_url" example:"https://api.github.com/"`
}

// VersionResponse for the service root
type VersionResponse struct {
	Name        string `json:"name" example:"Gist Search API"`
	Version     string `json:"version" example:"1.0.0"`
	Description string `json:"description"`
	Status      string `json:"status" example:"running"`

	// Search describes the search endpoint's pattern handling
	PatternSyntax  string `json:"pattern_syntax" example:"regexp2 (.NET/Perl compatible)"`
	SearchEndpoint string `json:"search_endpoint" example:"/api/v1/search"`
}
