package gists

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v73/github"
)

// UserLookupError is returned when the list endpoint answers with an error
// document instead of a gist list, e.g. for an unknown user.
type UserLookupError struct {
	Username   string
	Message    string
	StatusCode int
}

func (e *UserLookupError) Error() string {
	return fmt.Sprintf("username %s: %s", e.Username, e.Message)
}

// StatusError is returned when upstream answered with a non-success status
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
}

// TransportError is returned when a request produced no usable response:
// connection failures, timeouts, truncated bodies or undecodable JSON.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// isAPIError reports whether err is one of go-github's status errors
func isAPIError(err error) bool {
	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &errResp) || errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

// errorDocument reports whether data is a JSON object with a "message" key
func errorDocument(data []byte) (message string, ok bool) {
	var doc struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.Message == nil {
		return "", false
	}
	return *doc.Message, true
}
