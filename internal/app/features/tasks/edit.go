// internal/app/features/tasks/edit.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// HandleUpdate handles PUT /tasks/{id}, a partial update of any task field.
//
// Moving the task (projectId) also needs create on the target project, and
// the target must be in the same workspace. Every changed field publishes
// the event its single-field route would; position and project changes
// publish nothing.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	r, id, uid, cancel, ok := h.beginUpdate(w, r, &req)
	defer cancel()
	if !ok {
		return
	}
	ctx := r.Context()

	current, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	c, err := req.changes()
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	projectID := current.ProjectID
	if c.ProjectID != nil && *c.ProjectID != current.ProjectID {
		if _, ok := h.Gate.Require(w, r, taskpolicy.ActionCreate, *c.ProjectID); !ok {
			return
		}
		if err := h.sameWorkspace(ctx, current.ProjectID, *c.ProjectID); err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
		projectID = *c.ProjectID
	} else {
		c.ProjectID = nil
	}

	var assignee models.User
	if c.AssigneeID != nil && *c.AssigneeID != "" {
		if assignee, err = h.lookupAssignee(ctx, projectID, *c.AssigneeID); err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
	}

	before, err := h.Tasks.Update(ctx, id, c)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	after, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	h.publishChanges(uid, before, after, assignee)
	apiresp.WriteJSON(w, http.StatusOK, after)
}

// changes validates the request into a store update.
func (req updateRequest) changes() (taskstore.Changes, error) {
	c := taskstore.Changes{
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Position:    req.Position,
	}
	for _, f := range []struct {
		name string
		in   *string
		out  **string
	}{
		{"title", req.Title, &c.Title},
		{"status", req.Status, &c.Status},
		{"priority", req.Priority, &c.Priority},
		{"projectId", req.ProjectID, &c.ProjectID},
	} {
		if f.in == nil {
			continue
		}
		v, err := requireField(f.name, *f.in)
		if err != nil {
			return taskstore.Changes{}, err
		}
		*f.out = &v
	}
	if req.Position != nil && *req.Position < 0 {
		return taskstore.Changes{}, apiresp.BadRequest("position must not be negative")
	}
	if req.DueDate != nil {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return taskstore.Changes{}, err
		}
		c.DueDate, c.SetDueDate = due, true
	}
	return c, nil
}

// sameWorkspace rejects moving a task between workspaces; its labels and
// activity belong to the workspace it was created in.
func (h *Handler) sameWorkspace(ctx context.Context, fromProjectID, toProjectID string) error {
	from, err := h.Projects.GetByID(ctx, fromProjectID)
	if err != nil {
		return storeErr(err)
	}
	to, err := h.Projects.GetByID(ctx, toProjectID)
	if err != nil {
		return storeErr(err)
	}
	if from.WorkspaceID != to.WorkspaceID {
		return apiresp.BadRequest("task cannot move to a project in another workspace")
	}
	return nil
}

// publishChanges emits one event per field that differs between before and after.
func (h *Handler) publishChanges(uid string, before, after models.Task, assignee models.User) {
	id := after.ID
	if after.Title != before.Title {
		h.publish(eventbus.TopicTaskTitleChanged, id, uid, "title_changed", eventbus.Payload{
			"oldTitle": before.Title,
			"newTitle": after.Title,
			"title":    before.Title,
		})
	}
	if after.Description != before.Description {
		h.publish(eventbus.TopicTaskDescriptionChanged, id, uid, "description_changed", eventbus.Payload{
			"title": before.Title,
		})
	}
	if after.Status != before.Status {
		h.publish(eventbus.TopicTaskStatusChanged, id, uid, "status_changed", eventbus.Payload{
			"oldStatus": before.Status,
			"newStatus": after.Status,
			"title":     before.Title,
		})
	}
	if after.Priority != before.Priority {
		h.publish(eventbus.TopicTaskPriorityChanged, id, uid, "priority_changed", eventbus.Payload{
			"oldPriority": before.Priority,
			"newPriority": after.Priority,
			"title":       before.Title,
		})
	}
	if after.AssigneeID != before.AssigneeID {
		if after.AssigneeID == "" {
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
	}
	if !sameDue(before.DueDate, after.DueDate) {
		extra := eventbus.Payload{"title": before.Title}
		if before.DueDate != nil {
			extra["oldDueDate"] = *before.DueDate
		}
		if after.DueDate != nil {
			extra["newDueDate"] = *after.DueDate
		}
		h.publish(eventbus.TopicTaskDueDateChanged, id, uid, "due_date_changed", extra)
	}
}

func sameDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
