// Package filter provides the post predicates and the Engine that applies
// them. The predicates are pure: post in, bool out. No side effects.
package filter

import (
	"regexp"
	"strings"
	"time"

	"github.com/abelbrown/mentions/internal/post"
)

// All is the "no constraint" value for enum filters.
const All = "all"

// sampleURLPatterns catch seed and fixture posts that leak from the backend.
var sampleURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/samples?(/|\?|#|$)`),
	regexp.MustCompile(`(?i)^https?://([a-z0-9-]+\.)*(example\.(com|org|net)|placeholder\.com|lorem\.ipsum)(:\d+)?(/|\?|#|$)`),
	regexp.MustCompile(`/status/1234567\d*`),
}

// sampleSentinelURL is the one fixture URL matched exactly.
const sampleSentinelURL = "https://twitter.com/brand/status/0"

// sourceAliases collapse the issue-tracker variants into one name.
var sourceAliases = map[string]string{
	"github_issues":      "github",
	"github_discussions": "github",
}

// sourcePrefixes collapse every source starting with the prefix.
var sourcePrefixes = []string{
	"reddit",
	"twitter",
	"hackernews",
}

// IsSample reports whether url belongs to seed or placeholder data.
func IsSample(url string) bool {
	if url == "" {
		return false
	}
	if url == sampleSentinelURL {
		return true
	}
	for _, re := range sampleURLPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// CanonicalSource normalizes a source name, collapsing known aliases and
// prefix families. The result is lower case.
func CanonicalSource(source string) string {
	normalized := strings.ToLower(strings.TrimSpace(source))
	if canonical, ok := sourceAliases[normalized]; ok {
		return canonical
	}
	for _, prefix := range sourcePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return prefix
		}
	}
	return normalized
}

// isActive reports whether an enum filter value constrains anything.
func isActive(value string) bool {
	return value != "" && !strings.EqualFold(value, All)
}

// matchesSearch is a case-insensitive substring match on the text fields.
func matchesSearch(p post.Post, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Content), q) ||
		strings.Contains(strings.ToLower(p.Author), q) ||
		strings.Contains(strings.ToLower(p.URL), q) ||
		strings.Contains(strings.ToLower(p.Source), q)
}

// matchesSource passes on the canonical name or, for filters that were set
// from an unnormalized value, on the raw source.
func matchesSource(p post.Post, source string) bool {
	if !isActive(source) {
		return true
	}
	return CanonicalSource(p.Source) == source || p.Source == source
}

// matchesDate compares the post's local day against inclusive bounds.
// An empty bound is unbounded; a post with a malformed date fails any bound.
func matchesDate(p post.Post, from, to string, loc *time.Location) bool {
	if from == "" && to == "" {
		return true
	}
	key := p.DateKey(loc)
	if key == "" {
		return false
	}
	if from != "" && key < from {
		return false
	}
	if to != "" && key > to {
		return false
	}
	return true
}

// matchesAnswered implements the yes/no/all tri-state.
func matchesAnswered(p post.Post, answered string) bool {
	switch strings.ToLower(answered) {
	case "yes":
		return p.Answered()
	case "no":
		return !p.Answered()
	default:
		return true
	}
}

// ExcludeSamples drops seed and placeholder posts.
func ExcludeSamples(posts []post.Post) []post.Post {
	result := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if !IsSample(p.URL) {
			result = append(result, p)
		}
	}
	return result
}

// Sources returns the distinct canonical sources in first-seen order.
func Sources(posts []post.Post) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range posts {
		s := CanonicalSource(p.Source)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Languages returns the distinct lower-cased languages in first-seen order.
func Languages(posts []post.Post) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range posts {
		l := strings.ToLower(strings.TrimSpace(p.Language))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
