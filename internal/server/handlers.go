package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kuuzuki-ai/kuuzuki/internal/intercept"
	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
	"github.com/kuuzuki-ai/kuuzuki/internal/permission"
	"github.com/kuuzuki-ai/kuuzuki/internal/security"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// health reports liveness.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// interceptTool runs the full governance pipeline for one invocation:
// security pre-filter, permission decision, then tool resolution.
// Security blocks and permission denials are policy, not transient
// failure, and are never retried.
func (s *Server) interceptTool(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, s.deps.Interceptor.Intercept(req))
}

// enforcePolicy applies the security validator and permission engine.
// Returns true when a response has already been written.
func (s *Server) enforcePolicy(w http.ResponseWriter, r *http.Request, req *intercept.Request) bool {
	check := permission.CheckInput{
		Type:      permission.SubjectTool,
		Pattern:   req.ToolName,
		AgentName: req.AgentName,
		SessionID: req.SessionID,
		Config:    s.permissionConfig(),
		Env:       s.deps.EnvPermissions(),
	}
	subject := req.ToolName
	patterns := []string{req.ToolName}

	if req.ToolName == "bash" {
		cmd, _ := req.Parameters["command"].(string)
		if cmd != "" {
			// Hard pre-filter: a security block is final, the permission
			// engine never sees the command.
			res := security.ValidateInput(cmd, "bash")
			if !res.Allowed {
				writeErrorWithDetails(w, http.StatusForbidden, ErrCodeSecurityBlocked,
					"Command blocked by security validation", map[string]any{
						"riskLevel": res.RiskLevel,
						"reasons":   res.BlockedReasons,
					})
				return true
			}
			check.Type = permission.SubjectBash
			check.Pattern = cmd
			subject = "bash"
			if cmds, err := permission.ParseBashCommand(cmd); err == nil {
				patterns = permission.BuildPatterns(cmds)
			} else {
				patterns = []string{cmd}
			}
		}
	}

	action := s.deps.Engine.Check(check)
	err := s.deps.Checker.Enforce(r.Context(), permission.Request{
		SessionID: req.SessionID,
		Subject:   subject,
		Patterns:  patterns,
		Title:     "Allow " + subject + "?",
	}, action)
	if err == nil {
		return false
	}

	if permission.IsRejectedError(err) {
		writeError(w, http.StatusForbidden, ErrCodePermissionDenied, err.Error())
		return true
	}
	kerror.WriteHTTP(w, kerror.Classify(err, kerror.Context{
		SessionID: req.SessionID,
		RequestID: req.RequestID,
	}))
	return true
}

func (s *Server) permissionConfig() *types.PermissionConfig {
	cfg := s.deps.AppConfig
	if s.deps.ConfigSource != nil {
		cfg = s.deps.ConfigSource()
	}
	if cfg == nil {
		return nil
	}
	return cfg.Permission
}

// checkPermissionRequest is the body for POST /permission/check.
type checkPermissionRequest struct {
	Type      string `json:"type"` // "bash" | "tool"
	Pattern   string `json:"pattern"`
	AgentName string `json:"agentName,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// checkPermission evaluates a permission decision without enforcing it.
func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	var req checkPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	kind := permission.SubjectTool
	if req.Type == string(permission.SubjectBash) {
		kind = permission.SubjectBash
	}

	action := s.deps.Engine.Check(permission.CheckInput{
		Type:      kind,
		Pattern:   req.Pattern,
		AgentName: req.AgentName,
		SessionID: req.SessionID,
		Config:    s.permissionConfig(),
		Env:       s.deps.EnvPermissions(),
	})

	writeJSON(w, http.StatusOK, map[string]string{"action": string(action)})
}

// respondPermission answers a pending ask-flow request.
func (s *Server) respondPermission(w http.ResponseWriter, r *http.Request) {
	permissionID := chi.URLParam(r, "permissionID")

	var body struct {
		Action string `json:"action"` // "once" | "always" | "reject"
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	switch body.Action {
	case "once", "always", "reject":
	default:
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "action must be once, always, or reject")
		return
	}

	s.deps.Checker.Respond(permissionID, body.Action)
	writeSuccess(w)
}

// validateRequest is the body for POST /security/validate.
type validateRequest struct {
	Text    string `json:"text,omitempty"`
	Context string `json:"context,omitempty"`
	Path    string `json:"path,omitempty"`
	Mode    string `json:"mode,omitempty"` // "read" | "write" | "execute"
}

// validateInput runs the security battery over a command or file path.
func (s *Server) validateInput(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if req.Path != "" {
		mode := security.AccessRead
		switch req.Mode {
		case "write":
			mode = security.AccessWrite
		case "execute":
			mode = security.AccessExecute
		}
		writeJSON(w, http.StatusOK, security.ValidateFilePath(req.Path, mode))
		return
	}

	writeJSON(w, http.StatusOK, security.ValidateInput(req.Text, req.Context))
}

// getToolIDs returns the live available-tool id set.
func (s *Server) getToolIDs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ids": s.deps.Registry.IDs()})
}

// listAlerts returns all alerts, newest first.
func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": s.deps.Analytics.Alerts()})
}

// acknowledgeAlert marks an alert as handled.
func (s *Server) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")
	if !s.deps.Analytics.Acknowledge(alertID) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "unknown alert id")
		return
	}
	writeSuccess(w)
}

// listPatterns returns the rolling error-pattern aggregates.
func (s *Server) listPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"patterns": s.deps.Analytics.Patterns()})
}

// getHistory returns the bounded decision/resolution/error history.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"history": s.deps.Analytics.History()})
}
