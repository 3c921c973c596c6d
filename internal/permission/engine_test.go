package permission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

func mustConfig(t *testing.T, raw string) *types.PermissionConfig {
	t.Helper()
	var cfg types.PermissionConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	return &cfg
}

func TestEvaluateBashPatternMap(t *testing.T) {
	cfg := mustConfig(t, `{"bash": {"git *": "allow", "rm *": "deny", "*": "ask"}}`)

	tests := []struct {
		command string
		want    types.PermissionAction
	}{
		{"git status", types.ActionAllow},
		{"git push origin main", types.ActionAllow},
		{"rm -rf /", types.ActionDeny},
		{"curl http://x", types.ActionAsk},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got := Evaluate(CheckInput{
				Type:    SubjectBash,
				Pattern: tt.command,
				Config:  cfg,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateMostSpecificPatternWins(t *testing.T) {
	cfg := mustConfig(t, `{"bash": {"git *": "allow", "git push *": "deny"}}`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "git push origin", Config: cfg})
	assert.Equal(t, types.ActionDeny, got)

	got = Evaluate(CheckInput{Type: SubjectBash, Pattern: "git status", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)
}

func TestEvaluateExactBeatsWildcard(t *testing.T) {
	cfg := mustConfig(t, `{"bash": {"git status": "allow", "git *": "deny"}}`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "git status", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)
}

func TestEvaluatePatternMapMissDefaultsToAsk(t *testing.T) {
	cfg := mustConfig(t, `{"bash": {"git *": "allow"}}`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "curl http://x", Config: cfg})
	assert.Equal(t, types.ActionAsk, got, "configured pattern map with no match fails safe to ask")
}

func TestEvaluateCatchAllPatternApplies(t *testing.T) {
	// A configured "*" rule must win over the pattern-miss default.
	cfg := mustConfig(t, `{"bash": {"rm *": "ask", "*": "allow"}}`)
	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "curl http://x", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)

	cfg = mustConfig(t, `{"bash": {"git *": "allow", "*": "deny"}}`)
	got = Evaluate(CheckInput{Type: SubjectBash, Pattern: "curl http://x", Config: cfg})
	assert.Equal(t, types.ActionDeny, got)
}

func TestEvaluateAbsentSubjectDefaultsToAllow(t *testing.T) {
	cfg := mustConfig(t, `{"bash": {"git *": "allow"}}`)

	got := Evaluate(CheckInput{Type: SubjectTool, Pattern: "webfetch", Config: cfg})
	assert.Equal(t, types.ActionAllow, got, "subject absent from config keeps the permissive default")
}

func TestEvaluateNilConfigAllows(t *testing.T) {
	got := Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit"})
	assert.Equal(t, types.ActionAllow, got)
}

func TestEvaluateToolSubjectPlainAction(t *testing.T) {
	cfg := mustConfig(t, `{"edit": "deny", "webfetch": "ask"}`)

	assert.Equal(t, types.ActionDeny,
		Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", Config: cfg}))
	assert.Equal(t, types.ActionAsk,
		Evaluate(CheckInput{Type: SubjectTool, Pattern: "webfetch", Config: cfg}))
}

func TestEvaluateEnvOverrideReplacesFileConfig(t *testing.T) {
	fileCfg := mustConfig(t, `{"bash": {"git *": "deny"}, "edit": "deny"}`)
	envCfg := mustConfig(t, `{"bash": {"git *": "allow"}}`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "git status", Config: fileCfg, Env: envCfg})
	assert.Equal(t, types.ActionAllow, got)

	// No merge: a subject only present in the file config is treated as
	// absent once the override is active.
	got = Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", Config: fileCfg, Env: envCfg})
	assert.Equal(t, types.ActionAllow, got)
}

func TestEvaluateEnvOverrideAgentSubtree(t *testing.T) {
	fileCfg := mustConfig(t, `{"agents": {"reviewer": {"edit": "allow"}}}`)
	envCfg := mustConfig(t, `{"edit": "ask", "agents": {"reviewer": {"edit": "deny"}}}`)

	got := Evaluate(CheckInput{
		Type: SubjectTool, Pattern: "edit", AgentName: "reviewer",
		Config: fileCfg, Env: envCfg,
	})
	assert.Equal(t, types.ActionDeny, got, "the override's own agent subtree applies")
}

func TestEvaluateAgentOverridesGlobal(t *testing.T) {
	cfg := mustConfig(t, `{
		"edit": "deny",
		"bash": {"git *": "ask"},
		"agents": {
			"builder": {"edit": "allow", "bash": {"git *": "allow"}}
		}
	}`)

	got := Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", AgentName: "builder", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)

	got = Evaluate(CheckInput{Type: SubjectBash, Pattern: "git push", AgentName: "builder", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)

	// A different agent falls through to the global rules.
	got = Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", AgentName: "other", Config: cfg})
	assert.Equal(t, types.ActionDeny, got)
}

func TestEvaluateAgentSubtreeFallsThroughForMissingSubject(t *testing.T) {
	cfg := mustConfig(t, `{
		"edit": "deny",
		"agents": {"builder": {"webfetch": "allow"}}
	}`)

	got := Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", AgentName: "builder", Config: cfg})
	assert.Equal(t, types.ActionDeny, got, "subject missing from agent subtree uses the global rule")
}

func TestEvaluateLegacyArrayForm(t *testing.T) {
	cfg := mustConfig(t, `["git push *", "rm *"]`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "git push origin", Config: cfg})
	assert.Equal(t, types.ActionAsk, got, "legacy list membership maps to ask")

	got = Evaluate(CheckInput{Type: SubjectBash, Pattern: "ls -la", Config: cfg})
	assert.Equal(t, types.ActionAllow, got, "legacy list non-membership maps to allow")
}

func TestEvaluateMalformedRuleTreatedAsAbsent(t *testing.T) {
	cfg := mustConfig(t, `{"bash": 42, "edit": "nonsense"}`)

	got := Evaluate(CheckInput{Type: SubjectBash, Pattern: "rm -rf /", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)

	got = Evaluate(CheckInput{Type: SubjectTool, Pattern: "edit", Config: cfg})
	assert.Equal(t, types.ActionAllow, got)
}

type recordedDecision struct {
	subject string
	agent   string
	pattern string
	action  types.PermissionAction
}

type fakeRecorder struct {
	decisions []recordedDecision
}

func (f *fakeRecorder) RecordDecision(subject, agentName, pattern string, action types.PermissionAction) {
	f.decisions = append(f.decisions, recordedDecision{subject, agentName, pattern, action})
}

func TestEngineRecordsDecisions(t *testing.T) {
	rec := &fakeRecorder{}
	engine := NewEngine(rec)
	cfg := mustConfig(t, `{"bash": {"git *": "allow"}}`)

	got := engine.Check(CheckInput{Type: SubjectBash, Pattern: "git status", Config: cfg})

	assert.Equal(t, types.ActionAllow, got)
	require.Len(t, rec.decisions, 1)
	assert.Equal(t, "bash", rec.decisions[0].subject)
	assert.Equal(t, types.ActionAllow, rec.decisions[0].action)
}
