package search

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"
)

// PatternSyntax names the dialect CompilePattern accepts
const PatternSyntax = "regexp2 (.NET/Perl compatible)"

// Matcher applies a user pattern to gist content. Patterns use Perl/Python
// compatible syntax (lookarounds and backreferences are allowed) and match
// anywhere in the input.
type Matcher struct {
	re      *regexp2.Regexp
	pattern string
}

// CompilePattern compiles pattern. A positive timeout bounds each match attempt.
func CompilePattern(pattern string, timeout time.Duration) (*Matcher, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return &Matcher{re: re, pattern: pattern}, nil
}

// Match reports whether content contains a match. A match that exceeds the
// timeout counts as no match.
func (m *Matcher) Match(content []byte) bool {
	ok, err := m.re.MatchString(string(content))
	if err != nil {
		if isTimeout(err) {
			log.Warn().Str("pattern", m.pattern).Int("bytes", len(content)).Msg("Pattern match timed out")
		} else {
			log.Error().Err(err).Str("pattern", m.pattern).Msg("Pattern match failed")
		}
		return false
	}
	return ok
}

// String returns the source pattern
func (m *Matcher) String() string {
	return m.pattern
}

// regexp2 reports timeouts as plain errors
func isTimeout(err error) bool {
	return strings.Contains(err.Error(), "match timeout")
}
