package permission

import (
	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
	"github.com/kuuzuki-ai/kuuzuki/internal/wildcard"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// DecisionRecorder receives every permission decision for monitoring.
type DecisionRecorder interface {
	RecordDecision(subject, agentName, pattern string, action types.PermissionAction)
}

// Engine evaluates permission checks and reports decisions to monitoring.
// It holds no mutable cross-request state and is safe for unlimited
// concurrent use.
type Engine struct {
	recorder DecisionRecorder
}

// NewEngine creates an engine. recorder may be nil.
func NewEngine(recorder DecisionRecorder) *Engine {
	return &Engine{recorder: recorder}
}

// Check evaluates the input, records the decision, and publishes a
// permission.decision event.
func (e *Engine) Check(in CheckInput) types.PermissionAction {
	action := Evaluate(in)

	if e.recorder != nil {
		e.recorder.RecordDecision(in.subjectName(), in.AgentName, in.Pattern, action)
	}
	event.Publish(event.Event{
		Type: event.PermissionDecision,
		Data: event.PermissionDecisionData{
			Subject:   in.subjectName(),
			AgentName: in.AgentName,
			Action:    string(action),
			SessionID: in.SessionID,
		},
	})
	logging.Debug().
		Str("subject", in.subjectName()).
		Str("agent", in.AgentName).
		Str("action", string(action)).
		Msg("permission decision")

	return action
}

// Evaluate resolves a permission check to allow/deny/ask. It is a pure
// function of its input.
//
// Precedence, highest first:
//  1. An environment-supplied permission config entirely replaces the
//     file config, including its own agent subtree.
//  2. Within the winning source, a rule for the subject in the agent's
//     override subtree, when one exists for the invoking agent.
//  3. The global rule set.
//
// A subject entirely absent from config defaults to allow; a pattern-map
// subject with no matching pattern defaults to ask.
func Evaluate(in CheckInput) types.PermissionAction {
	cfg := in.Config
	if in.Env != nil {
		cfg = in.Env
	}
	if cfg == nil {
		return types.ActionAllow
	}

	// Legacy bare array form: membership means ask, otherwise allow.
	if cfg.Subjects == nil && cfg.Agents == nil && cfg.List != nil {
		return resolveList(cfg.List, in.Pattern)
	}

	subject := in.subjectName()

	if agentCfg := cfg.Agent(in.AgentName); agentCfg != nil {
		if action, ok := resolveSubject(agentCfg, subject, in.Pattern); ok {
			return action
		}
	}
	if action, ok := resolveSubject(cfg, subject, in.Pattern); ok {
		return action
	}

	// Subject absent from config entirely: permissive default.
	return types.ActionAllow
}

// resolveSubject resolves one subject within one config scope. The second
// return is false when the scope has no usable rule for the subject.
func resolveSubject(cfg *types.PermissionConfig, subject, text string) (types.PermissionAction, bool) {
	rule, ok := cfg.Subject(subject)
	if !ok {
		if cfg.List != nil {
			return resolveList(cfg.List, text), true
		}
		return "", false
	}

	switch rule.Kind {
	case types.RuleAction:
		return rule.Action, true

	case types.RulePatterns:
		patterns := make([]string, 0, len(rule.Patterns))
		for p := range rule.Patterns {
			patterns = append(patterns, p)
		}
		matches := wildcard.All(patterns, text)
		if len(matches) == 0 {
			// Fail safe: a configured pattern map that matches nothing
			// means the user did not anticipate this input.
			return types.ActionAsk, true
		}
		return rule.Patterns[matches[0].Pattern], true

	case types.RuleList:
		return resolveList(rule.List, text), true
	}

	return "", false
}

func resolveList(list []string, text string) types.PermissionAction {
	for _, p := range list {
		if wildcard.Match(p, text) {
			return types.ActionAsk
		}
	}
	return types.ActionAllow
}
