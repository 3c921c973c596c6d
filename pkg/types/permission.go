package types

import "encoding/json"

// PermissionAction is the decision for a permission check.
type PermissionAction string

const (
	ActionAllow PermissionAction = "allow"
	ActionDeny  PermissionAction = "deny"
	ActionAsk   PermissionAction = "ask"
)

// Valid reports whether the action is one of allow/deny/ask.
func (a PermissionAction) Valid() bool {
	switch a {
	case ActionAllow, ActionDeny, ActionAsk:
		return true
	}
	return false
}

// RuleKind identifies which JSON form a permission rule took.
type RuleKind int

const (
	// RuleAbsent marks a rule that was missing or malformed. Malformed
	// values are treated as absent, never as an error.
	RuleAbsent RuleKind = iota
	// RuleAction is a plain action string: "edit": "allow".
	RuleAction
	// RulePatterns is a pattern map: "bash": {"git *": "allow"}.
	RulePatterns
	// RuleList is the legacy bare array of patterns; membership means ask.
	RuleList
)

// PermissionRule is the value configured for one subject. The JSON form is
// polymorphic: a plain action string, a wildcard-pattern map, or a legacy
// array of patterns.
type PermissionRule struct {
	Kind     RuleKind
	Action   PermissionAction
	Patterns map[string]PermissionAction
	List     []string
}

// UnmarshalJSON accepts any of the three supported rule forms. Anything
// unrecognized leaves the rule absent.
func (r *PermissionRule) UnmarshalJSON(data []byte) error {
	*r = PermissionRule{}

	var action PermissionAction
	if err := json.Unmarshal(data, &action); err == nil {
		if action.Valid() {
			r.Kind = RuleAction
			r.Action = action
		}
		return nil
	}

	var patterns map[string]PermissionAction
	if err := json.Unmarshal(data, &patterns); err == nil {
		valid := make(map[string]PermissionAction, len(patterns))
		for pattern, act := range patterns {
			if act.Valid() {
				valid[pattern] = act
			}
		}
		if len(valid) > 0 {
			r.Kind = RulePatterns
			r.Patterns = valid
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		r.Kind = RuleList
		r.List = list
		return nil
	}

	return nil
}

// PermissionConfig is the permission section of the config. Its JSON form
// is either an object of subject rules (with an optional "agents" subtree
// of per-agent overrides) or a legacy bare array of bash patterns.
type PermissionConfig struct {
	Subjects map[string]PermissionRule
	List     []string
	Agents   map[string]*PermissionConfig
}

// UnmarshalJSON accepts both the object form and the legacy array form.
// Malformed entries are dropped rather than surfaced as errors.
func (c *PermissionConfig) UnmarshalJSON(data []byte) error {
	*c = PermissionConfig{}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		c.List = list
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	for key, value := range raw {
		if key == "agents" {
			var agents map[string]*PermissionConfig
			if err := json.Unmarshal(value, &agents); err == nil {
				c.Agents = agents
			}
			continue
		}
		var rule PermissionRule
		if err := json.Unmarshal(value, &rule); err == nil && rule.Kind != RuleAbsent {
			if c.Subjects == nil {
				c.Subjects = make(map[string]PermissionRule)
			}
			c.Subjects[key] = rule
		}
	}
	return nil
}

// Subject returns the rule for a subject plus whether it is present.
func (c *PermissionConfig) Subject(name string) (PermissionRule, bool) {
	if c == nil {
		return PermissionRule{}, false
	}
	rule, ok := c.Subjects[name]
	return rule, ok && rule.Kind != RuleAbsent
}

// Agent returns the per-agent override config, or nil.
func (c *PermissionConfig) Agent(name string) *PermissionConfig {
	if c == nil || name == "" {
		return nil
	}
	return c.Agents[name]
}
