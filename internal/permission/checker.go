package permission

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// Checker runs the ask flow for "ask" decisions and remembers per-session
// approvals so the same pattern is not asked twice.
type Checker struct {
	mu       sync.RWMutex
	patterns map[string]map[string]bool // sessionID -> pattern -> approved
	pending  map[string]chan Response   // requestID -> response channel
}

// NewChecker creates a new permission checker.
func NewChecker() *Checker {
	return &Checker{
		patterns: make(map[string]map[string]bool),
		pending:  make(map[string]chan Response),
	}
}

// Enforce applies an engine decision: allow passes, deny returns a
// RejectedError immediately (policy, never retried), ask defers to the
// user via the event bus.
func (c *Checker) Enforce(ctx context.Context, req Request, action types.PermissionAction) error {
	switch action {
	case types.ActionAllow:
		return nil
	case types.ActionDeny:
		return &RejectedError{
			SessionID: req.SessionID,
			Subject:   req.Subject,
			CallID:    req.CallID,
			Message:   "Permission denied by configuration",
		}
	case types.ActionAsk:
		return c.Ask(ctx, req)
	}
	return nil
}

// Ask prompts the user for permission and blocks until they respond or
// the context is cancelled.
func (c *Checker) Ask(ctx context.Context, req Request) error {
	c.mu.RLock()
	if approved, ok := c.patterns[req.SessionID]; ok && len(req.Patterns) > 0 {
		all := true
		for _, p := range req.Patterns {
			if !approved[p] {
				all = false
				break
			}
		}
		if all {
			c.mu.RUnlock()
			return nil
		}
	}
	c.mu.RUnlock()

	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	respChan := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	event.Publish(event.Event{
		Type: event.PermissionRequired,
		Data: event.PermissionRequiredData{
			ID:        req.ID,
			SessionID: req.SessionID,
			Subject:   req.Subject,
			Patterns:  req.Patterns,
			Title:     req.Title,
		},
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-respChan:
		switch resp.Action {
		case "once":
			return nil
		case "always":
			c.approve(req.SessionID, req.Patterns)
			return nil
		case "reject":
			return &RejectedError{
				SessionID: req.SessionID,
				Subject:   req.Subject,
				CallID:    req.CallID,
				Message:   "Permission rejected by user",
			}
		}
	}
	return nil
}

// Respond handles a user's response to a pending permission request.
func (c *Checker) Respond(requestID string, action string) {
	c.mu.RLock()
	ch, ok := c.pending[requestID]
	c.mu.RUnlock()

	if ok {
		ch <- Response{RequestID: requestID, Action: action}
	}

	event.Publish(event.Event{
		Type: event.PermissionResolved,
		Data: event.PermissionResolvedData{
			ID:      requestID,
			Granted: action != "reject",
		},
	})
}

func (c *Checker) approve(sessionID string, patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(patterns) == 0 {
		return
	}
	if c.patterns[sessionID] == nil {
		c.patterns[sessionID] = make(map[string]bool)
	}
	for _, p := range patterns {
		c.patterns[sessionID][p] = true
	}
}

// IsPatternApproved checks if a specific pattern is approved for a session.
func (c *Checker) IsPatternApproved(sessionID string, pattern string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if approved, ok := c.patterns[sessionID]; ok {
		return approved[pattern]
	}
	return false
}

// ClearSession clears all approvals for a session.
func (c *Checker) ClearSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.patterns, sessionID)
}
