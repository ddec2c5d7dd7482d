package models

// Search status values reported in SearchResult.Status
const (
	SearchStatusSuccess = "success"
	SearchStatusFailure = "failure"
)

// SearchRequest represents the incoming search request
type SearchRequest struct {
	Username string `json:"username" example:"justdionysus"`
	Pattern  string `json:"pattern" example:"TerbiumLabsChallenge_[0-9]+"`
}

// SearchResult is the outcome of a gist search for one user.
// Status latches to SearchStatusFailure once any gist detail fetch fails.
type SearchResult struct {
	Matches  []string `json:"matches"`
	Status   string   `json:"status" example:"success"`
	Username string   `json:"username" example:"justdionysus"`
	Pattern  string   `json:"pattern" example:"TerbiumLabsChallenge_[0-9]+"`
}

// NewSearchResult creates an empty successful result for username and pattern
func NewSearchResult(username, pattern string) *SearchResult {
	return &SearchResult{
		Matches:  []string{},
		Status:   SearchStatusSuccess,
		Username: username,
		Pattern:  pattern,
	}
}

// MarkFailed latches the result status to failure
func (r *SearchResult) MarkFailed() {
	r.Status = SearchStatusFailure
}

// Failed reports whether any gist could not be fetched
func (r *SearchResult) Failed() bool {
	return r.Status == SearchStatusFailure
}
