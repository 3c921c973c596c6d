// Package intercept sits between the session layer and tool execution.
// It resolves unavailable tool names through the compatibility resolver,
// adapts parameter bags to the substitute's shape, and can pre-register
// stubs for tool ids agents are known to request.
package intercept

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kuuzuki-ai/kuuzuki/internal/compat"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
	"github.com/kuuzuki-ai/kuuzuki/internal/tool"
)

// Request is an inbound tool invocation.
type Request struct {
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters,omitempty"`
	AgentName  string         `json:"agentName,omitempty"`
	SessionID  string         `json:"sessionId"`
	RequestID  string         `json:"requestId"`
}

// Outcome extends the resolver outcome with the adapted parameter bag.
// Parameters is set only when Status is resolved.
type Outcome struct {
	compat.Outcome
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Interceptor orchestrates resolution and parameter adaptation over the
// live tool registry.
type Interceptor struct {
	resolver *compat.Resolver
	registry *tool.Registry
	adapters map[string]ParameterAdapter
}

// NewInterceptor wires an interceptor over a resolver and registry with
// the built-in parameter adapters.
func NewInterceptor(resolver *compat.Resolver, registry *tool.Registry) *Interceptor {
	return &Interceptor{
		resolver: resolver,
		registry: registry,
		adapters: defaultAdapters(),
	}
}

// RegisterAdapter installs or replaces the parameter adapter for one
// requested->resolved pair.
func (i *Interceptor) RegisterAdapter(requested, resolved string, adapter ParameterAdapter) {
	i.adapters[adapterKey(requested, resolved)] = adapter
}

// Intercept resolves a request against the registry's current id set.
// On resolution the parameter bag is adapted to the substitute's shape;
// on alternatives the outcome carries a message enumerating the
// candidates without committing to one.
func (i *Interceptor) Intercept(req Request) Outcome {
	res := i.resolver.Resolve(req.ToolName, i.registry.IDs())

	out := Outcome{Outcome: res}
	if res.Status == compat.StatusResolved {
		out.Parameters = i.adaptParameters(req.ToolName, res.Resolved.Name, req.Parameters)
	}
	return out
}

// adaptParameters applies the adapter for the substitution pair, if one
// exists. Same-name resolutions and unknown pairs pass through.
func (i *Interceptor) adaptParameters(requested, resolved string, params map[string]any) map[string]any {
	if requested == resolved {
		return params
	}
	adapter, ok := i.adapters[adapterKey(requested, resolved)]
	if !ok {
		return params
	}
	return adapter.Apply(params)
}

// RegisterEager pre-resolves historically-missing tool ids at session
// start and installs stubs into the registry: a transparent redirect for
// ids that resolve via the exact or naming-convention strategies, a
// suggestion stub for fuzzy resolutions and for ids with alternatives.
// A fuzzy pre-resolution is a guess over tool names, too weak to commit
// an entire session's calls to silently. Ids already registered, or
// rejected outright, are skipped.
func (i *Interceptor) RegisterEager(ids []string) {
	for _, id := range ids {
		if i.registry.Has(id) {
			continue
		}
		res := i.resolver.Resolve(id, i.registry.IDs())
		switch res.Status {
		case compat.StatusResolved:
			if res.Resolved.Strategy == compat.ResolutionFuzzy {
				i.registry.Register(suggestionStub(id, fuzzyMessage(id, res.Resolved)))
				logging.Info().
					Str("requested", id).
					Str("candidate", res.Resolved.Name).
					Msg("eager suggestion stub installed for fuzzy match")
				continue
			}
			target, ok := i.registry.Get(res.Resolved.Name)
			if !ok {
				continue
			}
			i.registry.Register(i.redirectStub(id, target))
			logging.Info().
				Str("requested", id).
				Str("target", res.Resolved.Name).
				Msg("eager redirect stub installed")
		case compat.StatusAlternatives:
			i.registry.Register(suggestionStub(id, res.HumanMessage))
			logging.Info().
				Str("requested", id).
				Msg("eager suggestion stub installed")
		}
	}
}

// redirectStub makes a tool that forwards execution to target, adapting
// the parameter bag on the way through.
func (i *Interceptor) redirectStub(id string, target tool.Tool) tool.Tool {
	return tool.NewBaseTool(
		id,
		target.Description(),
		target.Parameters(),
		func(ctx context.Context, input json.RawMessage, toolCtx *tool.Context) (*tool.Result, error) {
			adapted, err := i.adaptRawParameters(id, target.ID(), input)
			if err != nil {
				return nil, fmt.Errorf("adapting parameters for %s: %w", id, err)
			}
			return target.Execute(ctx, adapted, toolCtx)
		},
	)
}

// adaptRawParameters applies the pair's adapter to a raw JSON bag.
func (i *Interceptor) adaptRawParameters(requested, resolved string, input json.RawMessage) (json.RawMessage, error) {
	adapter, ok := i.adapters[adapterKey(requested, resolved)]
	if !ok || len(input) == 0 {
		return input, nil
	}

	var params map[string]any
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, err
	}
	return json.Marshal(adapter.Apply(params))
}

// fuzzyMessage names the closest match for a fuzzy pre-resolution.
func fuzzyMessage(id string, call *compat.ResolvedCall) string {
	return fmt.Sprintf("Tool %q is not available. Closest match: %q (confidence %d%%). Invoke it directly to use it.",
		id, call.Name, call.Confidence)
}

// suggestionStub makes a tool that never executes anything; it reports
// the alternative candidates so the agent can pick one explicitly.
func suggestionStub(id, message string) tool.Tool {
	return tool.NewBaseTool(
		id,
		fmt.Sprintf("Unavailable tool %q; reports known alternatives.", id),
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, input json.RawMessage, toolCtx *tool.Context) (*tool.Result, error) {
			return &tool.Result{
				Title:  fmt.Sprintf("%s unavailable", id),
				Output: message,
				Metadata: map[string]any{
					"stub": "suggestion",
				},
			}, nil
		},
	)
}
