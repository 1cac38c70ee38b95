// internal/app/features/tasks/update.go
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

// beginUpdate runs the shared prologue of the single-field updates: bound
// the request, authorize modify on the task and decode the body.
func (h *Handler) beginUpdate(w http.ResponseWriter, r *http.Request, body any) (*http.Request, string, string, context.CancelFunc, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	r = r.WithContext(ctx)

	id := chi.URLParam(r, "id")
	uid, ok := h.Gate.Require(w, r, taskpolicy.ActionModify, id)
	if !ok {
		return r, "", "", cancel, false
	}
	if err := apiresp.DecodeJSON(r, body); err != nil {
		h.Gate.Fail(w, r, err)
		return r, "", "", cancel, false
	}
	return r, id, uid, cancel, true
}

// HandleStatus handles PUT /tasks/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	status, err := requireField("status", req.Status)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	before, err := h.Tasks.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	h.publish(eventbus.TopicTaskStatusChanged, id, uid, "status_changed", eventbus.Payload{
		"oldStatus": before.Status,
		"newStatus": status,
		"title":     before.Title,
	})

	after := before
	after.Status = status
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// HandlePriority handles PUT /tasks/{id}/priority.
func (h *Handler) HandlePriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	priority, err := requireField("priority", req.Priority)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	before, err := h.Tasks.UpdatePriority(r.Context(), id, priority)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	h.publish(eventbus.TopicTaskPriorityChanged, id, uid, "priority_changed", eventbus.Payload{
		"oldPriority": before.Priority,
		"newPriority": priority,
		"title":       before.Title,
	})

	after := before
	after.Priority = priority
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// HandleAssignee handles PUT /tasks/{id}/assignee. An empty assigneeId
// unassigns and publishes task.unassigned; otherwise the event carries the
// new assignee's display name.
func (h *Handler) HandleAssignee(w http.ResponseWriter, r *http.Request) {
	var req assigneeRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	ctx := r.Context()

	var assignee models.User
	if req.AssigneeID != "" {
		current, err := h.Tasks.GetByID(ctx, id)
		if err != nil {
			h.Gate.Fail(w, r, storeErr(err))
			return
		}
		if assignee, err = h.lookupAssignee(ctx, current.ProjectID, req.AssigneeID); err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
	}

	before, err := h.Tasks.UpdateAssignee(ctx, id, req.AssigneeID)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	if req.AssigneeID == "" {
		h.publish(eventbus.TopicTaskUnassigned, id, uid, "unassigned", eventbus.Payload{
			"title": before.Title,
		})
	} else {
		h.publish(eventbus.TopicTaskAssigneeChanged, id, uid, "assignee_changed", eventbus.Payload{
			"oldAssignee": before.AssigneeID,
			"newAssignee": displayName(assignee),
			"title":       before.Title,
		})
	}

	after := before
	after.AssigneeID = req.AssigneeID
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// HandleDueDate handles PUT /tasks/{id}/due-date. Clearing the date still
// publishes, without newDueDate, so no activity line is written for it.
func (h *Handler) HandleDueDate(w http.ResponseWriter, r *http.Request) {
	var req dueDateRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	before, err := h.Tasks.UpdateDueDate(r.Context(), id, due)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	extra := eventbus.Payload{"title": before.Title}
	if before.DueDate != nil {
		extra["oldDueDate"] = *before.DueDate
	}
	if due != nil {
		extra["newDueDate"] = *due
	}
	h.publish(eventbus.TopicTaskDueDateChanged, id, uid, "due_date_changed", extra)

	after := before
	after.DueDate = due
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// HandleTitle handles PUT /tasks/{id}/title.
func (h *Handler) HandleTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	title, err := requireField("title", req.Title)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	before, err := h.Tasks.UpdateTitle(r.Context(), id, title)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	h.publish(eventbus.TopicTaskTitleChanged, id, uid, "title_changed", eventbus.Payload{
		"oldTitle": before.Title,
		"newTitle": title,
		"title":    before.Title,
	})

	after := before
	after.Title = title
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// HandleDescription handles PUT /tasks/{id}/description. The description
// may be empty.
func (h *Handler) HandleDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}

	before, err := h.Tasks.UpdateDescription(r.Context(), id, req.Description)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	h.publish(eventbus.TopicTaskDescriptionChanged, id, uid, "description_changed", eventbus.Payload{
		"title": before.Title,
	})

	after := before
	after.Description = req.Description
	apiresp.WriteJSON(w, http.StatusOK, after)
}
