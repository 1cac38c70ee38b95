// internal/app/features/comments/feed.go
package comments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type feedItem struct {
	models.ActivityEntry
	UserName string `json:"user_name,omitempty"`
}

// ServeActivity handles GET /tasks/{taskID}/activity: the task's trail,
// oldest first, with author display names.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	r = r.WithContext(ctx)

	if _, ok := h.Gate.RequireUser(w, r); !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			err = fmt.Errorf("task %s: %w", taskID, authz.ErrNotFound)
		}
		h.Gate.Fail(w, r, err)
		return
	}
	if _, ok := h.Gate.Require(w, r, taskpolicy.ActionRead, task.ProjectID); !ok {
		return
	}

	entries, err := h.Activity.ListByTask(ctx, taskID)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	names, err := h.Users.NamesByIDs(ctx, ids)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	out := make([]feedItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, feedItem{ActivityEntry: e, UserName: names[e.UserID]})
	}
	apiresp.WriteJSON(w, http.StatusOK, out)
}
