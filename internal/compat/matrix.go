// Package compat resolves requested tool names that are not available to
// concrete substitutes, using a static compatibility matrix, naming
// conventions, and fuzzy matching.
package compat

import "sync"

// Strategy describes how a candidate relates to the requested tool.
type Strategy string

const (
	// StrategyExact is a different id for the same capability.
	StrategyExact Strategy = "exact"
	// StrategyFunctional covers the same need through different behavior.
	StrategyFunctional Strategy = "functional"
	// StrategyComposite needs several calls to emulate the capability.
	StrategyComposite Strategy = "composite"
	// StrategyPartial covers only part of the capability.
	StrategyPartial Strategy = "partial"
)

// Alternative is one candidate substitute for an unavailable tool.
type Alternative struct {
	Tool       string   `json:"tool"`
	Strategy   Strategy `json:"strategy"`
	Confidence int      `json:"confidence"` // 0-100
}

// Matrix maps requested tool ids to ranked alternatives. It is built at
// wiring time and read-only afterwards; lookups are table lookups, never
// text scans.
type Matrix struct {
	mu      sync.RWMutex
	entries map[string][]Alternative
}

// NewMatrix creates an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{entries: make(map[string][]Alternative)}
}

// Register adds alternatives for a requested id, preserving order.
func (m *Matrix) Register(requested string, alts ...Alternative) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[requested] = append(m.entries[requested], alts...)
}

// Alternatives returns a copy of the candidates for a requested id.
func (m *Matrix) Alternatives(requested string) []Alternative {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alts, ok := m.entries[requested]
	if !ok {
		return nil
	}
	out := make([]Alternative, len(alts))
	copy(out, alts)
	return out
}

// DefaultMatrix returns the matrix for the built-in tool universe,
// covering the knowledge-base MCP tools and common aliases agents
// request.
func DefaultMatrix() *Matrix {
	m := NewMatrix()

	m.Register("kb_read",
		Alternative{Tool: "kb-mcp_kb_read", Strategy: StrategyExact, Confidence: 100},
		Alternative{Tool: "read", Strategy: StrategyFunctional, Confidence: 70},
	)
	m.Register("kb_search",
		Alternative{Tool: "kb-mcp_kb_search", Strategy: StrategyExact, Confidence: 100},
		Alternative{Tool: "grep", Strategy: StrategyFunctional, Confidence: 65},
	)
	m.Register("kb_update",
		Alternative{Tool: "kb-mcp_kb_update", Strategy: StrategyExact, Confidence: 100},
		Alternative{Tool: "write", Strategy: StrategyFunctional, Confidence: 70},
		Alternative{Tool: "edit", Strategy: StrategyPartial, Confidence: 55},
	)
	m.Register("kb_status",
		Alternative{Tool: "kb-mcp_kb_status", Strategy: StrategyExact, Confidence: 100},
		Alternative{Tool: "bash", Strategy: StrategyComposite, Confidence: 45},
	)
	m.Register("kb_issues",
		Alternative{Tool: "kb-mcp_kb_issues", Strategy: StrategyExact, Confidence: 100},
		Alternative{Tool: "grep", Strategy: StrategyPartial, Confidence: 50},
	)
	m.Register("fetch",
		Alternative{Tool: "webfetch", Strategy: StrategyExact, Confidence: 100},
	)
	m.Register("search",
		Alternative{Tool: "grep", Strategy: StrategyFunctional, Confidence: 80},
		Alternative{Tool: "glob", Strategy: StrategyPartial, Confidence: 60},
	)
	m.Register("str_replace_editor",
		Alternative{Tool: "edit", Strategy: StrategyFunctional, Confidence: 85},
		Alternative{Tool: "write", Strategy: StrategyPartial, Confidence: 60},
	)
	m.Register("execute_command",
		Alternative{Tool: "bash", Strategy: StrategyFunctional, Confidence: 90},
	)

	return m
}
