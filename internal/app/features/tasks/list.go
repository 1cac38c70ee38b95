// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /projects/{projectID}/tasks[?status=].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	r = r.WithContext(ctx)

	projectID := chi.URLParam(r, "projectID")
	if _, ok := h.Gate.Require(w, r, taskpolicy.ActionRead, projectID); !ok {
		return
	}

	status := normalize.QueryParam(r.URL.Query().Get("status"))
	list, err := h.Tasks.ListByProject(ctx, projectID, status)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, list)
}

// ServeTask handles GET /tasks/{id}. Reading a task requires read access
// to its project.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	if _, ok := h.Gate.RequireUser(w, r); !ok {
		return
	}
	task, err := h.Tasks.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	if _, ok := h.Gate.Require(w, r, taskpolicy.ActionRead, task.ProjectID); !ok {
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, task)
}
