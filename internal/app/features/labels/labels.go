// internal/app/features/labels/labels.go
package labels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	labelstore "github.com/dalemusser/taskhub/internal/app/store/labels"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// DefaultColor is used when a label is created without one.
const DefaultColor = "#6b7280"

var colorRE = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type createRequest struct {
	WorkspaceID string `json:"workspaceId"`
	TaskID      string `json:"taskId"`
	Name        string `json:"name"`
	Color       string `json:"color"`
}

type updateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// cleanColor defaults and validates a label color, returning it lowercased.
func cleanColor(c string) (string, error) {
	if c == "" {
		c = DefaultColor
	}
	if !colorRE.MatchString(c) {
		return "", apiresp.BadRequest("color must look like #rrggbb")
	}
	return strings.ToLower(c), nil
}

// authorizeLabel checks the caller may change label. An attached label is
// decided on its task; a free label on its workspace.
func (h *Handler) authorizeLabel(w http.ResponseWriter, r *http.Request, label models.Label) bool {
	if label.TaskID != "" {
		_, ok := h.Gate.Require(w, r, taskpolicy.ActionAssignLabel, label.TaskID)
		return ok
	}
	_, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionAssignLabel, label.WorkspaceID)
	return ok
}

// loadLabel reads the {id} label and authorizes the caller on it.
func (h *Handler) loadLabel(w http.ResponseWriter, r *http.Request) (models.Label, bool) {
	if _, ok := h.Gate.RequireUser(w, r); !ok {
		return models.Label{}, false
	}
	id := chi.URLParam(r, "id")
	label, err := h.Labels.GetByID(r.Context(), id)
	if err != nil {
		h.Gate.Fail(w, r, labelErr(id, err))
		return models.Label{}, false
	}
	if !h.authorizeLabel(w, r, label) {
		return models.Label{}, false
	}
	return label, true
}

// HandleCreate handles POST /labels.
//
// With taskId the label is attached to that task and takes the task's
// workspace; any workspaceId in the body must agree with it.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	if _, ok := h.Gate.RequireUser(w, r); !ok {
		return
	}

	var req createRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.Gate.Fail(w, r, apiresp.BadRequest("name is required"))
		return
	}
	color, err := cleanColor(req.Color)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	workspaceID := req.WorkspaceID
	if req.TaskID != "" {
		if _, ok := h.Gate.Require(w, r, taskpolicy.ActionAssignLabel, req.TaskID); !ok {
			return
		}
		tc, err := h.Resolver.ResolveTaskContext(ctx, req.TaskID)
		if err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
		if workspaceID != "" && workspaceID != tc.WorkspaceID {
			h.Gate.Fail(w, r, apiresp.BadRequest("task does not belong to workspace %s", workspaceID))
			return
		}
		workspaceID = tc.WorkspaceID
	} else {
		if workspaceID == "" {
			h.Gate.Fail(w, r, apiresp.BadRequest("workspaceId or taskId is required"))
			return
		}
		if _, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionAssignLabel, workspaceID); !ok {
			return
		}
	}

	label, err := h.Labels.Create(ctx, models.Label{
		WorkspaceID: workspaceID,
		TaskID:      req.TaskID,
		Name:        req.Name,
		Color:       color,
	})
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusCreated, label)
}

// ServeLabel handles GET /labels/{id}.
func (h *Handler) ServeLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	label, ok := h.loadLabel(w, r)
	if !ok {
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, label)
}

// HandleUpdate handles PUT /labels/{id}. It changes the name and color
// only; a label never moves between tasks or workspaces.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	label, ok := h.loadLabel(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.Gate.Fail(w, r, apiresp.BadRequest("name is required"))
		return
	}
	color := label.Color
	if req.Color != "" {
		c, err := cleanColor(req.Color)
		if err != nil {
			h.Gate.Fail(w, r, err)
			return
		}
		color = c
	}

	updated, err := h.Labels.Update(ctx, label.ID, name, color)
	if err != nil {
		h.Gate.Fail(w, r, labelErr(label.ID, err))
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /labels/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	label, ok := h.loadLabel(w, r)
	if !ok {
		return
	}
	if err := h.Labels.Delete(ctx, label.ID); err != nil {
		h.Gate.Fail(w, r, labelErr(label.ID, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeTaskLabels handles GET /tasks/{taskID}/labels.
func (h *Handler) ServeTaskLabels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	if _, ok := h.Gate.RequireUser(w, r); !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Tasks.GetByID(ctx, taskID)
	if errors.Is(err, taskstore.ErrNotFound) {
		err = fmt.Errorf("task %s: %w", taskID, authz.ErrNotFound)
	}
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if _, ok := h.Gate.Require(w, r, taskpolicy.ActionRead, task.ProjectID); !ok {
		return
	}

	list, err := h.Labels.ListByTask(ctx, taskID)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, list)
}

// ServeWorkspaceLabels handles GET /workspaces/{workspaceID}/labels.
func (h *Handler) ServeWorkspaceLabels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	workspaceID := chi.URLParam(r, "workspaceID")
	if _, ok := h.Gate.RequireWorkspace(w, r, taskpolicy.ActionRead, workspaceID); !ok {
		return
	}

	list, err := h.Labels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusOK, list)
}

func labelErr(id string, err error) error {
	if errors.Is(err, labelstore.ErrNotFound) {
		return fmt.Errorf("label %s: %w", id, authz.ErrNotFound)
	}
	return err
}
