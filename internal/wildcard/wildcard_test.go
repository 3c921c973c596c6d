package wildcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    bool
	}{
		{"exact", "git status", "git status", true},
		{"trailing wildcard", "git *", "git push origin main", true},
		{"leading wildcard", "*.go", "main.go", true},
		{"middle wildcard", "git * main", "git push main", true},
		{"global wildcard", "*", "anything at all", true},
		{"wildcard both ends", "*password*", "export DB_PASSWORD=x", false},
		{"wildcard both ends lowercase", "*password*", "cat password.txt", true},
		{"leading wildcard with tail", "*b", "aab", true},
		{"leading wildcard no tail match", "*b", "aba", false},
		{"no match", "npm *", "git status", false},
		{"token prefix compatibility", "git push", "git push origin main", true},
		{"token prefix needs whole tokens", "git pu", "git push origin", false},
		{"literal without prefix relation", "docker run", "docker ps", false},
		{"empty pattern only matches empty", "", "x", false},
		{"empty pattern empty text", "", "", true},
		{"regex metacharacters are literal", "foo.bar", "fooxbar", false},
		{"regex metacharacters exact", "foo.bar", "foo.bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.text))
		})
	}
}

func TestAllSortedDescending(t *testing.T) {
	patterns := []string{"*", "git *", "git push *", "git push origin main"}
	matches := All(patterns, "git push origin main")

	require.Len(t, matches, 4)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Priority, matches[i].Priority,
			"matches must be sorted by priority descending")
	}
	assert.Equal(t, "git push origin main", matches[0].Pattern)
	assert.Equal(t, ExactMatchPriority, matches[0].Priority)
}

func TestAllExactAlwaysOutranksWildcard(t *testing.T) {
	// A highly specific wildcard pattern still scores below an exact match.
	matches := All([]string{"git pus*", "git*", "git push"}, "git push")

	require.Len(t, matches, 3)
	assert.Equal(t, "git push", matches[0].Pattern)
	assert.Equal(t, ExactMatchPriority, matches[0].Priority)
}

func TestAllNoMatches(t *testing.T) {
	matches := All([]string{"npm *", "cargo *"}, "git status")
	assert.Empty(t, matches)
}

func TestPrioritySpecificity(t *testing.T) {
	// More literal characters and anchoring means higher priority.
	assert.Greater(t, Priority("git push *"), Priority("git *"))
	assert.Greater(t, Priority("git *"), Priority("*"))
	assert.Greater(t, Priority("git"), Priority("git *"), "fully anchored beats open-ended")
}

func TestScenarioPermissionPatterns(t *testing.T) {
	patterns := []string{"git *", "rm *", "*"}

	m := All(patterns, "git status")
	require.NotEmpty(t, m)
	assert.Equal(t, "git *", m[0].Pattern)

	m = All(patterns, "rm -rf /")
	require.NotEmpty(t, m)
	assert.Equal(t, "rm *", m[0].Pattern)

	m = All(patterns, "curl http://x")
	require.NotEmpty(t, m)
	assert.Equal(t, "*", m[0].Pattern)
}

func TestMalformedPatternDegradesToNoMatch(t *testing.T) {
	assert.NotPanics(t, func() {
		Match("((*[", "anything")
		All([]string{"((*["}, "anything")
	})
}
