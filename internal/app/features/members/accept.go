// internal/app/features/members/accept.go
package members

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// actionAccept names an invitation accept refused for an email mismatch.
const actionAccept taskpolicy.Action = "acceptInvitation"

type acceptRequest struct {
	Token string `json:"token" validate:"required" label:"Token"`
}

type acceptResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
	Joined      bool   `json:"joined"`
}

// outcome is what an accept did to the caller's membership.
type outcome struct {
	role    authz.Role
	joined  bool
	changed bool
	kept    authz.Role // set when a manager role was preserved over derived
	derived authz.Role
}

// HandleAccept handles POST /invitations/{id}/accept.
//
// The invitation must be pending, unexpired and addressed to the caller's
// email. The role comes from the caller's email domain; an owner or admin
// who accepts keeps their role.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	r = r.WithContext(ctx)

	uid, ok := h.Gate.RequireUser(w, r)
	if !ok {
		return
	}
	if !h.Attempts.Allow(uid) {
		h.Log.Warn("invitation accept throttled", zap.String("user_id", uid))
		h.Gate.Fail(w, r, apiresp.ErrTooManyRequests)
		return
	}
	id := chi.URLParam(r, "id")

	var req acceptRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		h.Gate.Fail(w, r, apiresp.BadRequest("%s", res.All()))
		return
	}

	inv, err := h.Invitations.Get(ctx, id)
	if err == nil {
		err = invitationstore.Check(inv, req.Token, time.Now())
	}
	switch {
	case errors.Is(err, invitationstore.ErrNotFound), errors.Is(err, invitationstore.ErrInvalidToken):
		h.Gate.Fail(w, r, fmt.Errorf("invitation %s: %w", id, authz.ErrNotFound))
		return
	case errors.Is(err, invitationstore.ErrExpired), errors.Is(err, invitationstore.ErrNotPending):
		h.Gate.Fail(w, r, apiresp.BadRequest("%v", err))
		return
	case err != nil:
		h.Gate.Fail(w, r, err)
		return
	}

	user, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		err = fmt.Errorf("user %s: %w", uid, authz.ErrNotFound)
	}
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if normalize.Email(user.Email) != inv.Email {
		h.Gate.Fail(w, r, &taskpolicy.DeniedError{Action: actionAccept, ResourceID: inv.ID, WorkspaceID: inv.WorkspaceID})
		return
	}

	var out outcome
	err = txn.Run(ctx, h.DB.Client(), h.Log, func(ctx context.Context) error {
		var err error
		out, err = h.join(ctx, inv.ID, inv.WorkspaceID, uid, user.Email)
		return err
	})
	if errors.Is(err, invitationstore.ErrNotPending) {
		err = apiresp.BadRequest("%v", err)
	}
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	h.Attempts.Reset(uid)
	if out.kept != "" {
		h.AuditLog.MemberRoleKept(ctx, r, uid, inv.WorkspaceID, out.kept.String(), out.derived.String())
	} else if out.joined || out.changed {
		h.AuditLog.MemberJoined(ctx, r, uid, inv.WorkspaceID, out.role.String())
	}
	apiresp.WriteJSON(w, http.StatusOK, acceptResponse{
		WorkspaceID: inv.WorkspaceID,
		Role:        out.role.String(),
		Joined:      out.joined,
	})
}

// join claims the invitation and creates or updates the membership.
func (h *Handler) join(ctx context.Context, invitationID, workspaceID, uid, email string) (outcome, error) {
	if err := h.Invitations.MarkAccepted(ctx, invitationID, uid); err != nil {
		return outcome{}, err
	}

	m, err := h.Memberships.Get(ctx, workspaceID, uid)
	has := err == nil
	if err != nil && !errors.Is(err, membershipstore.ErrNotFound) {
		return outcome{}, err
	}
	current, _ := authz.ParseRole(m.Role)

	role, changed := h.Roles.Resolve(email, current, has)
	out := outcome{role: role, joined: !has, changed: changed}
	if derived := h.Roles.RoleForEmail(email); has && current.IsManager() && derived != current {
		out.kept, out.derived = current, derived
	}

	switch {
	case !has:
		_, err = h.Memberships.Add(ctx, workspaceID, uid, role)
	case changed:
		err = h.Memberships.SetRole(ctx, workspaceID, uid, role)
	}
	return out, err
}
