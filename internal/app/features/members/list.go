// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/queries/workspacemembers"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type memberRow struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ServeList handles GET /workspaces/{workspaceID}/members.
// With ?q= only members whose name starts with q (ignoring case and
// accents) are listed.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	r = r.WithContext(ctx)

	workspaceID := chi.URLParam(r, "workspaceID")
	if _, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionRead, workspaceID); !ok {
		return
	}

	list, err := workspacemembers.List(ctx, h.DB, workspaceID)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if q := normalize.QueryParam(r.URL.Query().Get("q")); q != "" {
		if list, err = h.filterByName(ctx, list, q); err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
	}

	rows := make([]memberRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, memberRow{UserID: m.User.ID, Name: m.User.Name, Email: m.User.Email, Role: m.Role})
	}
	apiresp.WriteJSON(w, http.StatusOK, rows)
}

// filterByName keeps the members matching q, preserving list order.
func (h *Handler) filterByName(ctx context.Context, list []workspacemembers.WorkspaceMember, q string) ([]workspacemembers.WorkspaceMember, error) {
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.User.ID)
	}
	matches, err := h.Users.SearchByName(ctx, ids, q, 0)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(matches))
	for _, u := range matches {
		keep[u.ID] = true
	}
	out := list[:0]
	for _, m := range list {
		if keep[m.User.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}
