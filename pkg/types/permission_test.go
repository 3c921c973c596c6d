package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionRuleForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want RuleKind
	}{
		{"action string", `"allow"`, RuleAction},
		{"pattern map", `{"git *": "allow"}`, RulePatterns},
		{"legacy list", `["git *", "rm *"]`, RuleList},
		{"invalid action string", `"maybe"`, RuleAbsent},
		{"number", `42`, RuleAbsent},
		{"null", `null`, RuleAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rule PermissionRule
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &rule))
			assert.Equal(t, tt.want, rule.Kind)
		})
	}
}

func TestPermissionRuleFiltersInvalidPatternActions(t *testing.T) {
	var rule PermissionRule
	require.NoError(t, json.Unmarshal([]byte(`{"git *": "allow", "rm *": "explode"}`), &rule))

	assert.Equal(t, RulePatterns, rule.Kind)
	assert.Len(t, rule.Patterns, 1)
	assert.Equal(t, ActionAllow, rule.Patterns["git *"])
}

func TestPermissionConfigObjectForm(t *testing.T) {
	raw := `{
		"edit": "deny",
		"bash": {"git *": "allow"},
		"agents": {"reviewer": {"edit": "allow"}}
	}`
	var cfg PermissionConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))

	rule, ok := cfg.Subject("edit")
	require.True(t, ok)
	assert.Equal(t, ActionDeny, rule.Action)

	rule, ok = cfg.Subject("bash")
	require.True(t, ok)
	assert.Equal(t, RulePatterns, rule.Kind)

	agent := cfg.Agent("reviewer")
	require.NotNil(t, agent)
	rule, ok = agent.Subject("edit")
	require.True(t, ok)
	assert.Equal(t, ActionAllow, rule.Action)

	assert.Nil(t, cfg.Agent("missing"))
}

func TestPermissionConfigLegacyArrayForm(t *testing.T) {
	var cfg PermissionConfig
	require.NoError(t, json.Unmarshal([]byte(`["git *", "npm *"]`), &cfg))

	assert.Equal(t, []string{"git *", "npm *"}, cfg.List)
	assert.Nil(t, cfg.Subjects)
}

func TestPermissionConfigMalformedNeverErrors(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `42`, `{"bash": [1, 2]}`} {
		var cfg PermissionConfig
		assert.NoError(t, json.Unmarshal([]byte(raw), &cfg), raw)
	}
}
