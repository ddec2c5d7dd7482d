package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/killallgit/gistapi/internal/metrics"
	"github.com/killallgit/gistapi/internal/models"
	"github.com/killallgit/gistapi/internal/services/gists"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ListSnippets(ctx context.Context, username string) ([]models.Snippet, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Snippet), args.Error(1)
}

func (m *MockClient) FetchSnippetDetail(ctx context.Context, detailURL string) (*gists.SnippetDetail, error) {
	args := m.Called(ctx, detailURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gists.SnippetDetail), args.Error(1)
}

func (m *MockClient) FetchRawFile(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Test helpers

func summary(id string) models.Snippet {
	return models.Snippet{
		ID:      id,
		URL:     "https://api.github.com/gists/" + id,
		HTMLURL: "https://gist.github.com/" + id,
		Public:  true,
	}
}

func okDetail(t *testing.T, snippet models.Snippet, files ...models.SnippetFile) *gists.SnippetDetail {
	t.Helper()

	snippet.Files = make(map[string]models.SnippetFile, len(files))
	for _, f := range files {
		snippet.Files[f.Filename] = f
	}

	body, err := json.Marshal(snippet)
	require.NoError(t, err)

	return &gists.SnippetDetail{
		StatusCode: http.StatusOK,
		Body:       body,
		Snippet:    &snippet,
	}
}

func file(name, content string) models.SnippetFile {
	return models.SnippetFile{
		Filename: name,
		RawURL:   "https://gist.githubusercontent.com/raw/" + name,
		Content:  content,
	}
}

func truncatedFile(name, content string) models.SnippetFile {
	f := file(name, content)
	f.Truncated = true
	return f
}

func TestService_Search(t *testing.T) {
	a, b := summary("aaa"), summary("bbb")

	tests := []struct {
		name            string
		pattern         string
		opts            []ServiceOption
		setupMock       func(t *testing.T, m *MockClient)
		expectedStatus  string
		expectedMatches []string
	}{
		{
			name:    "no gists",
			pattern: "anything",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{}, nil)
			},
			expectedStatus:  models.SearchStatusSuccess,
			expectedMatches: []string{},
		},
		{
			name:    "failed detail latches status and contributes nothing",
			pattern: "needle",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a, b}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, file("a.txt", "a needle here")), nil)
				m.On("FetchSnippetDetail", mock.Anything, b.URL).Return(&gists.SnippetDetail{StatusCode: http.StatusInternalServerError}, nil)
			},
			expectedStatus:  models.SearchStatusFailure,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
		{
			name:    "failure before a match still reports the match",
			pattern: "needle",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{b, a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, b.URL).Return(&gists.SnippetDetail{StatusCode: http.StatusForbidden}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, file("a.txt", "needle")), nil)
			},
			expectedStatus:  models.SearchStatusFailure,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
		{
			name:    "truncated file content matches",
			pattern: "LASTLINE",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, truncatedFile("big.log", "first lines only")), nil)
				m.On("FetchRawFile", mock.Anything, "https://gist.githubusercontent.com/raw/big.log").Return([]byte("first lines only\nLASTLINE\n"), nil)
			},
			expectedStatus:  models.SearchStatusSuccess,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
		{
			name:    "body and truncated file matches are both kept",
			pattern: "needle",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, truncatedFile("big.log", "needle at the top")), nil)
				m.On("FetchRawFile", mock.Anything, "https://gist.githubusercontent.com/raw/big.log").Return([]byte("needle at the top\n..."), nil)
			},
			expectedStatus: models.SearchStatusSuccess,
			expectedMatches: []string{
				"https://gist.github.com/alice/aaa",
				"https://gist.github.com/alice/aaa",
			},
		},
		{
			name:    "dedupe collapses repeated urls",
			pattern: "needle",
			opts:    []ServiceOption{WithDedupe(true)},
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, truncatedFile("big.log", "needle at the top")), nil)
				m.On("FetchRawFile", mock.Anything, "https://gist.githubusercontent.com/raw/big.log").Return([]byte("needle at the top\n..."), nil)
			},
			expectedStatus:  models.SearchStatusSuccess,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
		{
			name:    "missing raw file latches status and keeps body match",
			pattern: "needle",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, truncatedFile("big.log", "needle")), nil)
				m.On("FetchRawFile", mock.Anything, "https://gist.githubusercontent.com/raw/big.log").
					Return(nil, &gists.StatusError{Op: "fetch raw file", URL: "https://gist.githubusercontent.com/raw/big.log", StatusCode: http.StatusNotFound})
			},
			expectedStatus:  models.SearchStatusFailure,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
		{
			name:    "lookbehind syntax is supported",
			pattern: `(?<=token=)[a-f0-9]{8}`,
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a, b}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, file("env", "token=deadbeef")), nil)
				m.On("FetchSnippetDetail", mock.Anything, b.URL).Return(okDetail(t, b, file("env", "secret=deadbeef")), nil)
			},
			expectedStatus:  models.SearchStatusSuccess,
			expectedMatches: []string{"https://gist.github.com/alice/aaa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			tt.setupMock(t, client)

			service := NewService(client, tt.opts...)
			result, err := service.Search(context.Background(), "alice", tt.pattern)
			require.NoError(t, err)

			assert.Equal(t, "alice", result.Username)
			assert.Equal(t, tt.pattern, result.Pattern)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedMatches, result.Matches)
			client.AssertExpectations(t)
		})
	}
}

func TestService_Search_UserLookupError(t *testing.T) {
	client := new(MockClient)
	client.On("ListSnippets", mock.Anything, "++--").
		Return(nil, &gists.UserLookupError{Username: "++--", Message: "Not Found", StatusCode: http.StatusNotFound})

	service := NewService(client)
	result, err := service.Search(context.Background(), "++--", "x")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUserNotFound))
	assert.Equal(t, http.StatusNotFound, apperrors.GetHTTPCode(err))

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, "username ++--: Not Found", appErr.Message)
	client.AssertNotCalled(t, "FetchSnippetDetail", mock.Anything, mock.Anything)
}

func TestService_Search_InvalidPattern(t *testing.T) {
	client := new(MockClient)

	service := NewService(client)
	_, err := service.Search(context.Background(), "alice", "([unclosed")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidPattern))
	assert.Equal(t, http.StatusBadRequest, apperrors.GetHTTPCode(err))
	client.AssertNotCalled(t, "ListSnippets", mock.Anything, mock.Anything)
}

func TestService_Search_TransportErrors(t *testing.T) {
	a := summary("aaa")

	tests := []struct {
		name         string
		setupMock    func(t *testing.T, m *MockClient)
		expectedCode apperrors.ErrorCode
		expectedHTTP int
	}{
		{
			name: "list transport failure",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").
					Return(nil, &gists.TransportError{Op: "list gists", Err: errors.New("connection refused")})
			},
			expectedCode: apperrors.ErrCodeUpstreamUnavailable,
			expectedHTTP: http.StatusBadGateway,
		},
		{
			name: "detail transport failure aborts search",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).
					Return(nil, &gists.TransportError{Op: "fetch gist", URL: a.URL, Err: errors.New("connection reset")})
			},
			expectedCode: apperrors.ErrCodeUpstreamUnavailable,
			expectedHTTP: http.StatusBadGateway,
		},
		{
			name: "raw file transport failure aborts search",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
				m.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, truncatedFile("big.log", "x")), nil)
				m.On("FetchRawFile", mock.Anything, mock.Anything).
					Return(nil, &gists.TransportError{Op: "fetch raw file", Err: errors.New("no such host")})
			},
			expectedCode: apperrors.ErrCodeUpstreamUnavailable,
			expectedHTTP: http.StatusBadGateway,
		},
		{
			name: "deadline exceeded",
			setupMock: func(t *testing.T, m *MockClient) {
				m.On("ListSnippets", mock.Anything, "alice").
					Return(nil, &gists.TransportError{Op: "list gists", Err: context.DeadlineExceeded})
			},
			expectedCode: apperrors.ErrCodeUpstreamTimeout,
			expectedHTTP: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			tt.setupMock(t, client)

			service := NewService(client)
			result, err := service.Search(context.Background(), "alice", "x")

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.expectedCode, apperrors.GetCode(err))
			assert.Equal(t, tt.expectedHTTP, apperrors.GetHTTPCode(err))
		})
	}
}

func TestService_Search_TimeoutMessages(t *testing.T) {
	t.Run("search timeout names the search deadline", func(t *testing.T) {
		client := new(MockClient)
		client.On("ListSnippets", mock.Anything, "alice").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, &gists.TransportError{Op: "list gists", Err: context.DeadlineExceeded})

		service := NewService(client, WithTimeout(20*time.Millisecond))
		_, err := service.Search(context.Background(), "alice", "x")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "operation 'search' timed out after 20ms")
	})

	t.Run("request timeout names the upstream operation", func(t *testing.T) {
		client := new(MockClient)
		client.On("ListSnippets", mock.Anything, "alice").
			Return(nil, &gists.TransportError{Op: "list gists", Err: context.DeadlineExceeded})

		service := NewService(client)
		_, err := service.Search(context.Background(), "alice", "x")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "upstream list gists timed out")
		assert.NotContains(t, err.Error(), "0s")
	})
}

func TestService_Search_UnexpectedErrorIsInternal(t *testing.T) {
	client := new(MockClient)
	client.On("ListSnippets", mock.Anything, "alice").Return(nil, errors.New("boom"))

	service := NewService(client)
	_, err := service.Search(context.Background(), "alice", "x")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetHTTPCode(err))
	assert.Contains(t, err.Error(), "search for alice failed")
}

func TestService_Search_OrderIsDeterministic(t *testing.T) {
	const count = 8

	client := new(MockClient)
	snippets := make([]models.Snippet, count)
	expected := make([]string, count)
	for i := range snippets {
		snippets[i] = summary(fmt.Sprintf("g%d", i))
		expected[i] = fmt.Sprintf("https://gist.github.com/alice/g%d", i)

		// Earlier gists answer later
		client.On("FetchSnippetDetail", mock.Anything, snippets[i].URL).
			After(time.Duration(count-i) * 5 * time.Millisecond).
			Return(okDetail(t, snippets[i], file("f.txt", "match me")), nil)
	}
	client.On("ListSnippets", mock.Anything, "alice").Return(snippets, nil)

	service := NewService(client, WithMaxConcurrency(count))
	result, err := service.Search(context.Background(), "alice", "match")
	require.NoError(t, err)

	assert.Equal(t, models.SearchStatusSuccess, result.Status)
	assert.Equal(t, expected, result.Matches)
}

func TestService_Search_TruncatedFilesInNameOrder(t *testing.T) {
	a := summary("aaa")

	client := new(MockClient)
	client.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a}, nil)
	client.On("FetchSnippetDetail", mock.Anything, a.URL).
		Return(okDetail(t, a, truncatedFile("b.log", ""), truncatedFile("a.log", ""), file("c.txt", "")), nil)

	var order []string
	client.On("FetchRawFile", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.String(1))
		}).
		Return([]byte("nothing"), nil)

	service := NewService(client, WithMaxConcurrency(1))
	_, err := service.Search(context.Background(), "alice", "needle")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://gist.githubusercontent.com/raw/a.log",
		"https://gist.githubusercontent.com/raw/b.log",
	}, order)
}

func TestService_Search_RecordsMetrics(t *testing.T) {
	a, b := summary("aaa"), summary("bbb")

	client := new(MockClient)
	client.On("ListSnippets", mock.Anything, "alice").Return([]models.Snippet{a, b}, nil)
	client.On("FetchSnippetDetail", mock.Anything, a.URL).Return(okDetail(t, a, file("a.txt", "needle")), nil)
	client.On("FetchSnippetDetail", mock.Anything, b.URL).Return(&gists.SnippetDetail{StatusCode: http.StatusBadGateway}, nil)

	m := metrics.New()
	service := NewService(client, WithMetrics(m))

	_, err := service.Search(context.Background(), "alice", "needle")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "gistapi_searches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(m.Registry(), "gistapi_matches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_Search_ChallengeGist(t *testing.T) {
	gist := models.Snippet{
		ID:      "6b2972aa971dd605f524",
		URL:     "https://api.github.com/gists/6b2972aa971dd605f524",
		HTMLURL: "https://gist.github.com/6b2972aa971dd605f524",
		Public:  true,
	}

	client := new(MockClient)
	client.On("ListSnippets", mock.Anything, "justdionysus").Return([]models.Snippet{gist}, nil)
	client.On("FetchSnippetDetail", mock.Anything, gist.URL).
		Return(okDetail(t, gist, file("challenge.txt", "TerbiumLabsChallenge_42")), nil)

	service := NewService(client)
	result, err := service.Search(context.Background(), "justdionysus", "TerbiumLabsChallenge_[0-9]+")
	require.NoError(t, err)

	assert.Equal(t, &models.SearchResult{
		Matches:  []string{"https://gist.github.com/justdionysus/6b2972aa971dd605f524"},
		Status:   models.SearchStatusSuccess,
		Username: "justdionysus",
		Pattern:  "TerbiumLabsChallenge_[0-9]+",
	}, result)
}

func TestMatchURL(t *testing.T) {
	tests := []struct {
		name     string
		htmlURL  string
		id       string
		username string
		expected string
	}{
		{
			name:     "standard gist url",
			htmlURL:  "https://gist.example.com/abc123",
			id:       "abc123",
			username: "alice",
			expected: "https://gist.example.com/alice/abc123",
		},
		{
			name:     "only first occurrence replaced",
			htmlURL:  "https://abc123.example.com/abc123",
			id:       "abc123",
			username: "alice",
			expected: "https://alice/abc123.example.com/abc123",
		},
		{
			name:     "id absent",
			htmlURL:  "https://gist.example.com/other",
			id:       "abc123",
			username: "alice",
			expected: "https://gist.example.com/other",
		},
		{
			name:     "empty id",
			htmlURL:  "https://gist.example.com/",
			id:       "",
			username: "alice",
			expected: "https://gist.example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchURL(tt.htmlURL, tt.id, tt.username))
		})
	}
}

func TestNewService_Options(t *testing.T) {
	service := NewService(new(MockClient))
	assert.Equal(t, DefaultMaxConcurrency, service.maxConcurrency)
	assert.Equal(t, DefaultMatchTimeout, service.matchTimeout)
	assert.Zero(t, service.timeout)
	assert.False(t, service.dedupe)

	service = NewService(new(MockClient),
		WithMaxConcurrency(0),
		WithTimeout(10*time.Second),
		WithMatchTimeout(-1),
		WithDedupe(true),
	)
	assert.Equal(t, DefaultMaxConcurrency, service.maxConcurrency)
	assert.Equal(t, 10*time.Second, service.timeout)
	assert.Equal(t, DefaultMatchTimeout, service.matchTimeout)
	assert.True(t, service.dedupe)
}
