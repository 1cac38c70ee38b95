// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MemberRoutes is mounted at /workspaces/{workspaceID}/members.
func MemberRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/", h.ServeList)
	return r
}

// WorkspaceInvitationRoutes is mounted at /workspaces/{workspaceID}/invitations.
func WorkspaceInvitationRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeInvitations)
		pr.Post("/", h.HandleInvite)
	})
	return r
}

// InvitationRoutes is mounted at /invitations.
func InvitationRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Post("/{id}/accept", h.HandleAccept)
	return r
}
