// Package wildcard scores and ranks glob-like patterns against literal strings.
package wildcard

import (
	"regexp"
	"sort"
	"strings"
)

// ExactMatchPriority is assigned when a pattern equals the text verbatim.
// It is strictly above anything a wildcard pattern can score.
const ExactMatchPriority = 1_000_000

// Match reports whether pattern matches text. The `*` token matches any
// run of characters, including none.
//
// Compatibility mode: a pattern with no wildcard also matches when the
// text's whitespace-delimited tokens begin with the pattern's tokens, so
// "git push" matches "git push origin main". Malformed patterns never
// panic; they simply do not match.
func Match(pattern, text string) bool {
	if pattern == "" {
		return text == ""
	}
	if pattern == text {
		return true
	}

	if !strings.Contains(pattern, "*") {
		return tokenPrefixMatch(pattern, text)
	}

	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Ranked pairs a pattern with its computed priority.
type Ranked struct {
	Pattern  string
	Priority int
}

// All returns every pattern that matches text, paired with its priority
// and sorted by priority descending. Exact equality always outranks any
// wildcard match.
func All(patterns []string, text string) []Ranked {
	var out []Ranked
	for _, p := range patterns {
		if !Match(p, text) {
			continue
		}
		prio := Priority(p)
		if p == text {
			prio = ExactMatchPriority
		}
		out = append(out, Ranked{Pattern: p, Priority: prio})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return len(out[i].Pattern) > len(out[j].Pattern)
	})
	return out
}

// Priority scores a pattern's specificity. Literal characters dominate,
// anchored boundaries (a non-wildcard start or end) add weight, and each
// fully-literal whitespace token preserved in the pattern adds a little
// more.
func Priority(pattern string) int {
	literals := len(strings.ReplaceAll(pattern, "*", ""))
	p := literals * 10

	if pattern != "" && !strings.HasPrefix(pattern, "*") {
		p += 50
	}
	if pattern != "" && !strings.HasSuffix(pattern, "*") {
		p += 50
	}

	for _, tok := range strings.Fields(pattern) {
		if !strings.Contains(tok, "*") {
			p += 5
		}
	}
	return p
}

// tokenPrefixMatch implements compatibility mode for literal patterns:
// the candidate's tokens must begin with the pattern's tokens.
func tokenPrefixMatch(pattern, text string) bool {
	pt := strings.Fields(pattern)
	tt := strings.Fields(text)
	if len(pt) == 0 || len(pt) > len(tt) {
		return false
	}
	for i, tok := range pt {
		if tt[i] != tok {
			return false
		}
	}
	return true
}

// compile converts a wildcard pattern into an anchored regexp.
func compile(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i, part := range strings.Split(pattern, "*") {
		if i > 0 {
			sb.WriteString(".*")
		}
		sb.WriteString(regexp.QuoteMeta(part))
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
