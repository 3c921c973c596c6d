// Package permission decides whether tool calls are allowed, denied, or
// need user consent, using wildcard rule matching over the permission
// config with per-agent overrides.
package permission

import (
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// SubjectKind distinguishes what a permission subject refers to.
type SubjectKind string

const (
	// SubjectBash governs shell command execution. The rule set lives
	// under the "bash" subject and is matched against the command line.
	SubjectBash SubjectKind = "bash"
	// SubjectTool governs a named tool. The rule set lives under the
	// tool's own name.
	SubjectTool SubjectKind = "tool"
)

// CheckInput carries everything a permission decision needs. Config is the
// file-sourced snapshot; Env, when non-nil, is an environment-supplied
// override that entirely replaces Config, including its agent subtree.
type CheckInput struct {
	Type      SubjectKind
	Pattern   string
	AgentName string
	SessionID string
	Config    *types.PermissionConfig
	Env       *types.PermissionConfig
}

// subjectName returns the config key the rule set for this check lives under.
func (in CheckInput) subjectName() string {
	if in.Type == SubjectBash {
		return "bash"
	}
	return in.Pattern
}

// Request represents a pending ask-flow request.
type Request struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionID"`
	Subject   string         `json:"subject"`
	Patterns  []string       `json:"patterns,omitempty"`
	CallID    string         `json:"callID,omitempty"`
	Title     string         `json:"title"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Response represents a user's answer to a permission request.
type Response struct {
	RequestID string `json:"requestID"`
	Action    string `json:"action"` // "once" | "always" | "reject"
}

// RejectedError is returned when permission is denied.
type RejectedError struct {
	SessionID string
	Subject   string
	CallID    string
	Message   string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// IsRejectedError checks if an error is a permission rejection.
func IsRejectedError(err error) bool {
	_, ok := err.(*RejectedError)
	return ok
}
