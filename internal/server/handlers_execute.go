package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kuuzuki-ai/kuuzuki/internal/compat"
	"github.com/kuuzuki-ai/kuuzuki/internal/intercept"
	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
	"github.com/kuuzuki-ai/kuuzuki/internal/recovery"
	"github.com/kuuzuki-ai/kuuzuki/internal/tool"
)

// executeResponse wraps a tool result with the resolution that produced it.
type executeResponse struct {
	Outcome intercept.Outcome `json:"outcome"`
	Result  *tool.Result      `json:"result,omitempty"`
}

// executeTool runs the full pipeline and, when resolution succeeds,
// invokes the resolved tool body under the recovery manager.
func (s *Server) executeTool(w http.ResponseWriter, r *http.Request) {
	var req intercept.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "toolName is required")
		return
	}

	if blocked := s.enforcePolicy(w, r, &req); blocked {
		return
	}

	out := s.deps.Interceptor.Intercept(req)
	if out.Status != compat.StatusResolved {
		// Alternatives or rejection surface to the caller with the
		// human message; nothing executes.
		writeJSON(w, http.StatusOK, executeResponse{Outcome: out})
		return
	}

	t, ok := s.deps.Registry.Get(out.Resolved.Name)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "resolved tool disappeared from registry")
		return
	}

	input, err := json.Marshal(out.Parameters)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "parameters are not serializable")
		return
	}

	var result *tool.Result
	execErr := s.deps.Recovery.Execute(r.Context(), recovery.Options{
		Operation: "tool_execute",
		Tool:      out.Resolved.Name,
		SessionID: req.SessionID,
		RequestID: req.RequestID,
	}, func(ctx context.Context) error {
		var err error
		result, err = t.Execute(ctx, input, &tool.Context{
			SessionID: req.SessionID,
			RequestID: req.RequestID,
			Agent:     req.AgentName,
		})
		return err
	})
	if execErr != nil {
		kerror.WriteHTTP(w, kerror.Classify(execErr, kerror.Context{
			SessionID: req.SessionID,
			RequestID: req.RequestID,
		}))
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{Outcome: out, Result: result})
}
