// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// ProjectRoutes is mounted at /projects/{projectID}/tasks.
func ProjectRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/export", h.ServeExport)
		pr.Post("/import", h.HandleImport)
	})
	return r
}

// Routes is mounted at /tasks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/{id}", h.ServeTask)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		// Single-field updates, one event each.
		pr.Put("/{id}/status", h.HandleStatus)
		pr.Put("/{id}/priority", h.HandlePriority)
		pr.Put("/{id}/assignee", h.HandleAssignee)
		pr.Put("/{id}/due-date", h.HandleDueDate)
		pr.Put("/{id}/title", h.HandleTitle)
		pr.Put("/{id}/description", h.HandleDescription)
	})
	return r
}
