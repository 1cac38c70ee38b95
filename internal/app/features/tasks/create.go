// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleCreate handles POST /projects/{projectID}/tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	r = r.WithContext(ctx)

	projectID := chi.URLParam(r, "projectID")
	uid, ok := h.Gate.Require(w, r, taskpolicy.ActionCreate, projectID)
	if !ok {
		return
	}

	var req createRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if req.AssigneeID != "" {
		if _, err := h.lookupAssignee(ctx, projectID, req.AssigneeID); err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
	}

	task, err := h.Tasks.Create(ctx, models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   uid,
	})
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	h.publish(eventbus.TopicTaskCreated, task.ID, uid, "create", eventbus.Payload{
		"content": "created the task",
		"title":   task.Title,
	})
	apiresp.WriteJSON(w, http.StatusCreated, task)
}
