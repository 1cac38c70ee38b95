// internal/app/features/tasks/delete.go
package tasks

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /tasks/{id}. The task's activity trail and
// labels go with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete task")
	defer cancel()
	r = r.WithContext(ctx)

	id := chi.URLParam(r, "id")
	uid, ok := h.Gate.Require(w, r, taskpolicy.ActionModify, id)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(ctx, id); err != nil {
		h.Gate.Fail(w, r, storeErr(err))
		return
	}

	// The task is gone; leftover children are logged rather than failing the request.
	if _, err := h.Activity.DeleteByTask(ctx, id); err != nil {
		h.Log.Warn("delete task: activity cleanup failed", zap.String("task_id", id), zap.Error(err))
	}
	if _, err := h.Labels.DeleteByTask(ctx, id); err != nil {
		h.Log.Warn("delete task: label cleanup failed", zap.String("task_id", id), zap.Error(err))
	}

	h.Log.Info("task deleted", zap.String("task_id", id), zap.String("user_id", uid))
	w.WriteHeader(http.StatusNoContent)
}
