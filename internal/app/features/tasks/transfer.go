// internal/app/features/tasks/transfer.go
package tasks

import (
	"net/http"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/limits"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type importRow struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssigneeID  string  `json:"assigneeId"`
}

type importRequest struct {
	Tasks []importRow `json:"tasks"`
}

type importRowResult struct {
	Success bool         `json:"success"`
	Task    *models.Task `json:"task,omitempty"`
	Row     *importRow   `json:"row,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type importResponse struct {
	ImportedAt time.Time  `json:"importedAt"`
	Project    projectRef `json:"project"`
	Results    struct {
		Total      int               `json:"total"`
		Successful int               `json:"successful"`
		Failed     int               `json:"failed"`
		Tasks      []importRowResult `json:"tasks"`
	} `json:"results"`
}

type exportResponse struct {
	ExportedAt time.Time     `json:"exportedAt"`
	Project    projectRef    `json:"project"`
	Tasks      []models.Task `json:"tasks"`
}

// ServeExport handles GET /projects/{projectID}/tasks/export.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export tasks")
	defer cancel()
	r = r.WithContext(ctx)

	projectID := chi.URLParam(r, "projectID")
	if _, ok := h.Gate.Require(w, r, taskpolicy.ActionRead, projectID); !ok {
		return
	}

	p, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}
	list, err := h.Tasks.ListByProject(ctx, projectID, "")
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+p.Slug+`-tasks.json"`)
	apiresp.WriteJSON(w, http.StatusOK, exportResponse{
		ExportedAt: time.Now().UTC(),
		Project:    projectRef{ID: p.ID, Name: p.Name, Slug: p.Slug},
		Tasks:      list,
	})
}

// HandleImport handles POST /projects/{projectID}/tasks/import.
//
// Authorization is checked once for the project. Rows are created in
// order; a bad row is reported in the results and does not stop the rest.
// Each created task publishes task.created with content "imported the task".
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "import tasks")
	defer cancel()
	r = r.WithContext(ctx)

	projectID := chi.URLParam(r, "projectID")
	uid, ok := h.Gate.Require(w, r, taskpolicy.ActionCreate, projectID)
	if !ok {
		return
	}

	var req importRequest
	if err := apiresp.DecodeJSONLimit(r, &req, limits.MaxImportBody); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if len(req.Tasks) > limits.MaxImportRows {
		h.Gate.Fail(w, r, apiresp.BadRequest("at most %d tasks can be imported at once", limits.MaxImportRows))
		return
	}

	p, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	var resp importResponse
	resp.Project = projectRef{ID: p.ID, Name: p.Name, Slug: p.Slug}
	resp.Results.Total = len(req.Tasks)
	resp.Results.Tasks = make([]importRowResult, 0, len(req.Tasks))

	for i := range req.Tasks {
		row := req.Tasks[i]
		task, err := h.importOne(r, projectID, uid, row)
		if err != nil {
			resp.Results.Failed++
			resp.Results.Tasks = append(resp.Results.Tasks, importRowResult{Row: &row, Error: err.Error()})
			continue
		}
		resp.Results.Successful++
		resp.Results.Tasks = append(resp.Results.Tasks, importRowResult{Success: true, Task: &task})

		h.publish(eventbus.TopicTaskCreated, task.ID, uid, "create", eventbus.Payload{
			"content": "imported the task",
			"title":   task.Title,
		})
	}

	h.Log.Info("tasks imported",
		zap.String("project_id", projectID),
		zap.String("user_id", uid),
		zap.Int("successful", resp.Results.Successful),
		zap.Int("failed", resp.Results.Failed))

	resp.ImportedAt = time.Now().UTC()
	apiresp.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) importOne(r *http.Request, projectID, uid string, row importRow) (models.Task, error) {
	due, err := parseDueDate(row.DueDate)
	if err != nil {
		return models.Task{}, err
	}
	if row.AssigneeID != "" {
		if _, err := h.lookupAssignee(r.Context(), projectID, row.AssigneeID); err != nil {
			return models.Task{}, err
		}
	}
	task, err := h.Tasks.Create(r.Context(), models.Task{
		ProjectID:   projectID,
		Title:       row.Title,
		Description: row.Description,
		Status:      row.Status,
		Priority:    row.Priority,
		DueDate:     due,
		AssigneeID:  row.AssigneeID,
		CreatedBy:   uid,
	})
	if err != nil {
		return models.Task{}, storeErr(err)
	}
	return task, nil
}
