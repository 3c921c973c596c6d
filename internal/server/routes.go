package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)

	// Tool governance
	r.Route("/tool", func(r chi.Router) {
		r.Post("/intercept", s.interceptTool)
		r.Post("/execute", s.executeTool)
		r.Get("/ids", s.getToolIDs)
	})

	// Permissions
	r.Route("/permission", func(r chi.Router) {
		r.Post("/check", s.checkPermission)
		r.Post("/{permissionID}", s.respondPermission)
	})

	// Security validation
	r.Post("/security/validate", s.validateInput)

	// Monitoring
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", s.listAlerts)
		r.Post("/{alertID}/acknowledge", s.acknowledgeAlert)
	})
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/patterns", s.listPatterns)
		r.Get("/history", s.getHistory)
	})

	// Event streaming (SSE)
	r.Get("/event", s.streamEvents)
}
