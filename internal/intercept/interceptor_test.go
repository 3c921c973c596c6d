package intercept

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuuzuki-ai/kuuzuki/internal/compat"
	"github.com/kuuzuki-ai/kuuzuki/internal/tool"
)

func echoTool(id string) tool.Tool {
	return tool.NewBaseTool(id, id+" tool", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, input json.RawMessage, toolCtx *tool.Context) (*tool.Result, error) {
			return &tool.Result{Title: id, Output: string(input)}, nil
		})
}

func newTestInterceptor(t *testing.T, toolIDs ...string) (*Interceptor, *tool.Registry) {
	t.Helper()
	reg := tool.NewRegistry()
	for _, id := range toolIDs {
		reg.Register(echoTool(id))
	}
	return NewInterceptor(compat.NewResolver(compat.DefaultMatrix(), nil), reg), reg
}

func TestInterceptResolvesExactMapping(t *testing.T) {
	i, _ := newTestInterceptor(t, "kb-mcp_kb_read", "bash")

	out := i.Intercept(Request{
		ToolName:   "kb_read",
		Parameters: map[string]any{"path": "notes.md"},
		SessionID:  "s1",
		RequestID:  "r1",
	})

	require.Equal(t, compat.StatusResolved, out.Status)
	assert.Equal(t, "kb-mcp_kb_read", out.Resolved.Name)
	assert.Equal(t, 100, out.Resolved.Confidence)
	// No adapter registered for this pair, bag passes through.
	assert.Equal(t, map[string]any{"path": "notes.md"}, out.Parameters)
}

func TestInterceptAdaptsParameters(t *testing.T) {
	i, _ := newTestInterceptor(t, "webfetch", "bash")

	out := i.Intercept(Request{
		ToolName: "fetch",
		Parameters: map[string]any{
			"url": "https://example.com",
		},
	})

	require.Equal(t, compat.StatusResolved, out.Status)
	assert.Equal(t, "webfetch", out.Resolved.Name)
	assert.Equal(t, map[string]any{
		"url":    "https://example.com",
		"format": "text",
	}, out.Parameters)
}

func TestInterceptOffersAlternativesWithoutCommitting(t *testing.T) {
	i, _ := newTestInterceptor(t, "write", "edit")

	out := i.Intercept(Request{ToolName: "kb_update"})

	require.Equal(t, compat.StatusAlternatives, out.Status)
	assert.Nil(t, out.Resolved)
	assert.Nil(t, out.Parameters)
	assert.Contains(t, out.HumanMessage, "write")
	assert.Contains(t, out.HumanMessage, "edit")
}

func TestInterceptRejectsUnknownTool(t *testing.T) {
	i, _ := newTestInterceptor(t, "bash")

	out := i.Intercept(Request{ToolName: "totally_unknown_tool"})

	assert.Equal(t, compat.StatusRejected, out.Status)
	assert.Empty(t, out.Alternatives)
}

func TestAdapterNeverOverwritesCallerFields(t *testing.T) {
	a := ParameterAdapter{
		Renames:  map[string]string{"path": "filePath"},
		Defaults: map[string]any{"format": "text"},
	}

	out := a.Apply(map[string]any{
		"path":     "a.md",
		"filePath": "explicit.md",
		"format":   "markdown",
	})

	assert.Equal(t, "explicit.md", out["filePath"], "explicit field wins over rename")
	assert.Equal(t, "markdown", out["format"], "explicit field wins over default")
}

func TestRegisterEagerInstallsRedirectStub(t *testing.T) {
	i, reg := newTestInterceptor(t, "webfetch")

	i.RegisterEager([]string{"fetch"})

	stub, ok := reg.Get("fetch")
	require.True(t, ok, "redirect stub registered under requested id")

	input := json.RawMessage(`{"url":"https://example.com"}`)
	res, err := stub.Execute(context.Background(), input, &tool.Context{})
	require.NoError(t, err)
	assert.Equal(t, "webfetch", res.Title, "execution redirected to the real tool")

	var forwarded map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Output), &forwarded))
	assert.Equal(t, "https://example.com", forwarded["url"])
	assert.Equal(t, "text", forwarded["format"], "default filled before forwarding")
}

func TestRegisterEagerInstallsSuggestionStub(t *testing.T) {
	i, reg := newTestInterceptor(t, "write", "edit")

	i.RegisterEager([]string{"kb_update"})

	stub, ok := reg.Get("kb_update")
	require.True(t, ok, "suggestion stub registered")

	res, err := stub.Execute(context.Background(), nil, &tool.Context{})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "write")
	assert.Equal(t, "suggestion", res.Metadata["stub"])
}

func TestRegisterEagerFuzzyMatchGetsSuggestionNotRedirect(t *testing.T) {
	i, reg := newTestInterceptor(t, "webfetch")

	// "webfetcher" only resolves fuzzily; pre-registering a silent
	// redirect for a guess would commit every session call to it.
	i.RegisterEager([]string{"webfetcher"})

	stub, ok := reg.Get("webfetcher")
	require.True(t, ok, "fuzzy pre-resolution still gets a stub")

	res, err := stub.Execute(context.Background(), json.RawMessage(`{"url":"https://example.com"}`), &tool.Context{})
	require.NoError(t, err)
	assert.Equal(t, "suggestion", res.Metadata["stub"], "fuzzy match must not redirect")
	assert.Contains(t, res.Output, "webfetch")
}

func TestRegisterAdapterAppliesOnResolve(t *testing.T) {
	i, _ := newTestInterceptor(t, "kb-mcp_kb_read")
	i.RegisterAdapter("kb_read", "kb-mcp_kb_read", ParameterAdapter{
		Renames: map[string]string{"path": "file"},
	})

	out := i.Intercept(Request{
		ToolName:   "kb_read",
		Parameters: map[string]any{"path": "notes.md"},
	})

	require.Equal(t, compat.StatusResolved, out.Status)
	assert.Equal(t, map[string]any{"file": "notes.md"}, out.Parameters)
}

func TestRegisterEagerSkipsExistingAndRejected(t *testing.T) {
	i, reg := newTestInterceptor(t, "bash")

	i.RegisterEager([]string{"bash", "totally_unknown_tool"})

	assert.False(t, reg.Has("totally_unknown_tool"), "rejected ids get no stub")
	assert.Len(t, reg.IDs(), 1)
}
