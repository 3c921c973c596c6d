package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
)

// Status is the outcome class of a resolution attempt.
type Status string

const (
	StatusResolved     Status = "resolved"
	StatusAlternatives Status = "alternatives"
	StatusRejected     Status = "rejected"
)

// Resolution strategies, recorded with every attempt.
const (
	ResolutionDirect  = "direct"
	ResolutionExact   = "exact"
	ResolutionPattern = "pattern"
	ResolutionFuzzy   = "fuzzy"
	ResolutionNone    = "none"
)

// fuzzyFloor is the minimum normalized similarity for a fuzzy match.
const fuzzyFloor = 0.7

// ResolvedCall is a concrete substitution the caller can execute.
type ResolvedCall struct {
	Name       string `json:"name"`
	Strategy   string `json:"strategy"`
	Confidence int    `json:"confidence"` // 0-100
}

// Outcome is the result of a resolution attempt. Exactly one of the
// three statuses applies: Resolved is set only for StatusResolved, and
// Alternatives is non-empty only for StatusAlternatives.
type Outcome struct {
	Requested    string        `json:"requested"`
	Status       Status        `json:"status"`
	Resolved     *ResolvedCall `json:"resolved,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	HumanMessage string        `json:"message,omitempty"`
}

// Recorder receives every resolution attempt, including failed ones.
type Recorder interface {
	RecordResolution(requested, resolved, strategy string, confidence int, status string)
}

// Resolver maps requested tool names onto the available tool universe.
// Strategies run in a fixed order: direct availability, exact matrix
// mapping, naming-convention match, then fuzzy match. Resolution is a
// pure function of (requested, available, matrix), so repeated calls
// with the same inputs return the same outcome.
type Resolver struct {
	matrix   *Matrix
	recorder Recorder
}

// NewResolver creates a resolver over the given matrix. recorder may be
// nil when no analytics sink is wired.
func NewResolver(matrix *Matrix, recorder Recorder) *Resolver {
	if matrix == nil {
		matrix = NewMatrix()
	}
	return &Resolver{matrix: matrix, recorder: recorder}
}

// Resolve maps a requested tool name onto the available set. When no
// strategy produces a usable substitute, it falls back to offering the
// matrix's non-exact alternatives that are themselves available, ranked
// by confidence; with none of those either, the call is rejected.
func (r *Resolver) Resolve(requested string, available []string) Outcome {
	availSet := make(map[string]bool, len(available))
	for _, id := range available {
		availSet[id] = true
	}

	if out, ok := r.tryResolve(requested, available, availSet); ok {
		r.record(out)
		return out
	}

	alts := r.availableAlternatives(requested, availSet)
	if len(alts) > 0 {
		out := Outcome{
			Requested:    requested,
			Status:       StatusAlternatives,
			Alternatives: alts,
			HumanMessage: alternativesMessage(requested, alts),
		}
		r.record(out)
		return out
	}

	out := Outcome{
		Requested:    requested,
		Status:       StatusRejected,
		HumanMessage: fmt.Sprintf("Tool %q is not available and no substitute could be found.", requested),
	}
	r.record(out)
	return out
}

// tryResolve runs the substitution strategies in their fixed order.
func (r *Resolver) tryResolve(requested string, available []string, availSet map[string]bool) (Outcome, bool) {
	if availSet[requested] {
		return resolved(requested, requested, ResolutionDirect, 100), true
	}

	for _, alt := range r.matrix.Alternatives(requested) {
		if alt.Strategy == StrategyExact && availSet[alt.Tool] {
			return resolved(requested, alt.Tool, ResolutionExact, alt.Confidence), true
		}
	}

	if name, ok := patternMatch(requested, available); ok {
		return resolved(requested, name, ResolutionPattern, 90), true
	}

	if name, sim, ok := fuzzyMatch(requested, available); ok {
		return resolved(requested, name, ResolutionFuzzy, int(sim*100)), true
	}

	return Outcome{}, false
}

func resolved(requested, name, strategy string, confidence int) Outcome {
	return Outcome{
		Requested: requested,
		Status:    StatusResolved,
		Resolved: &ResolvedCall{
			Name:       name,
			Strategy:   strategy,
			Confidence: confidence,
		},
	}
}

// availableAlternatives filters the matrix's functional, composite, and
// partial candidates down to tools that actually exist, ranked by
// confidence descending. Ties keep matrix registration order.
func (r *Resolver) availableAlternatives(requested string, availSet map[string]bool) []Alternative {
	var alts []Alternative
	for _, alt := range r.matrix.Alternatives(requested) {
		if alt.Strategy == StrategyExact {
			continue
		}
		if availSet[alt.Tool] {
			alts = append(alts, alt)
		}
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].Confidence > alts[j].Confidence
	})
	return alts
}

// patternMatch applies naming conventions seen across MCP servers:
// separator swaps (kb-read vs kb_read) and server prefixes or suffixes
// wrapping the bare capability name (kb-mcp_kb_read for kb_read).
// Available ids are scanned in order; the first match wins.
func patternMatch(requested string, available []string) (string, bool) {
	normReq := normalizeName(requested)
	for _, id := range available {
		if normalizeName(id) == normReq {
			return id, true
		}
		if strings.HasSuffix(id, "_"+requested) || strings.HasSuffix(id, "-"+requested) {
			return id, true
		}
		if strings.HasPrefix(id, requested+"_") || strings.HasPrefix(id, requested+"-") {
			return id, true
		}
	}
	return "", false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", "_"))
}

// fuzzyMatch finds the closest available id by normalized Levenshtein
// similarity, accepting it only above the floor. The best similarity
// wins; ties keep the earlier id in the available slice.
func fuzzyMatch(requested string, available []string) (string, float64, bool) {
	var (
		best    string
		bestSim float64
	)
	for _, id := range available {
		sim := similarity(requested, id)
		if sim > bestSim {
			best, bestSim = id, sim
		}
	}
	if bestSim >= fuzzyFloor {
		return best, bestSim, true
	}
	return "", 0, false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(normalizeName(a), normalizeName(b))
	return 1 - float64(dist)/float64(longest)
}

func alternativesMessage(requested string, alts []Alternative) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool %q is not available. Closest alternatives:\n", requested)
	for _, alt := range alts {
		fmt.Fprintf(&b, "  - %s (%s match, confidence %d%%)\n", alt.Tool, alt.Strategy, alt.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

// record sends the attempt to analytics and the event bus.
func (r *Resolver) record(out Outcome) {
	name, strategy, confidence := "", ResolutionNone, 0
	if out.Resolved != nil {
		name = out.Resolved.Name
		strategy = out.Resolved.Strategy
		confidence = out.Resolved.Confidence
	}

	if r.recorder != nil {
		r.recorder.RecordResolution(out.Requested, name, strategy, confidence, string(out.Status))
	}
	event.Publish(event.Event{
		Type: event.ToolResolved,
		Data: event.ToolResolvedData{
			Requested:  out.Requested,
			Resolved:   name,
			Strategy:   strategy,
			Confidence: confidence,
			Status:     string(out.Status),
		},
	})
	logging.Debug().
		Str("requested", out.Requested).
		Str("resolved", name).
		Str("strategy", strategy).
		Str("status", string(out.Status)).
		Msg("tool resolution")
}
