// internal/app/features/members/invite.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type inviteRequest struct {
	Email string `json:"email" validate:"required,mailbox" label:"Email"`
}

type inviteResponse struct {
	Invitation models.Invitation `json:"invitation"`
	// Token is shown once; only its hash is stored.
	Token string `json:"token"`
}

// HandleInvite handles POST /workspaces/{workspaceID}/invitations.
// Delivering the token to the invitee is left to the caller.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	workspaceID := chi.URLParam(r, "workspaceID")
	uid, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionManageMembers, workspaceID)
	if !ok {
		return
	}

	var req inviteRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		h.Gate.Fail(w, r, apiresp.BadRequest("%s", res.All()))
		return
	}

	inv, token, err := h.Invitations.Create(ctx, workspaceID, req.Email, uid)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusCreated, inviteResponse{Invitation: inv, Token: token})
}

// ServeInvitations handles GET /workspaces/{workspaceID}/invitations.
func (h *Handler) ServeInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	workspaceID := chi.URLParam(r, "workspaceID")
	if _, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionManageMembers, workspaceID); !ok {
		return
	}

	list, err := h.Invitations.ListPending(ctx, workspaceID)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, list)
}
