// internal/app/features/comments/comment.go
package comments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhub/internal/app/system/limits"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type contentRequest struct {
	Content string `json:"content"`
}

// cleanContent sanitizes a submitted comment body.
func cleanContent(raw string) (string, error) {
	content := htmlsanitize.Comment(raw)
	if content == "" {
		return "", apiresp.BadRequest("comment content is required")
	}
	if len(content) > limits.MaxCommentLength {
		return "", apiresp.BadRequest("comment is too long")
	}
	return content, nil
}

// HandleCreate handles POST /tasks/{taskID}/comments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	taskID := chi.URLParam(r, "taskID")
	uid, ok := h.Gate.Require(w, r, taskpolicy.ActionComment, taskID)
	if !ok {
		return
	}

	var req contentRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	content, err := cleanContent(req.Content)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	entry, err := h.Activity.Record(ctx, models.ActivityEntry{
		TaskID:  taskID,
		Type:    models.ActivityTypeComment,
		UserID:  uid,
		Content: content,
	})
	if errors.Is(err, activity.ErrTaskGone) {
		err = fmt.Errorf("task %s: %w", taskID, authz.ErrNotFound)
	}
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	apiresp.WriteJSON(w, http.StatusCreated, entry)
}

// ownComment loads a comment the caller authored. Entries that are not
// comments are reported as not found; another user's comment is a denial.
func (h *Handler) ownComment(ctx context.Context, id, uid string) (models.ActivityEntry, error) {
	e, err := h.Activity.Get(ctx, id)
	if errors.Is(err, activity.ErrNotFound) || (err == nil && !e.IsComment()) {
		return models.ActivityEntry{}, fmt.Errorf("comment %s: %w", id, authz.ErrNotFound)
	}
	if err != nil {
		return models.ActivityEntry{}, err
	}
	if e.UserID != uid {
		return models.ActivityEntry{}, &taskpolicy.DeniedError{Action: taskpolicy.ActionComment, ResourceID: id}
	}
	return e, nil
}

// HandleUpdate handles PUT /comments/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	uid, ok := h.Gate.RequireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req contentRequest
	if err := apiresp.DecodeJSON(r, &req); err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	content, err := cleanContent(req.Content)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}

	existing, err := h.ownComment(ctx, id, uid)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	updated, err := h.Activity.UpdateComment(ctx, id, uid, content)
	if err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			err = fmt.Errorf("comment %s: %w", id, authz.ErrNotFound)
		}
		h.Gate.Fail(w, r, err)
		return
	}

	h.Audit.CommentUpdated(ctx, r, uid, existing.TaskID, id)
	apiresp.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /comments/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	r = r.WithContext(ctx)

	uid, ok := h.Gate.RequireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	existing, err := h.ownComment(ctx, id, uid)
	if err != nil {
		h.Gate.Fail(w, r, err)
		return
	}
	if err := h.Activity.DeleteComment(ctx, id, uid); err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			err = fmt.Errorf("comment %s: %w", id, authz.ErrNotFound)
		}
		h.Gate.Fail(w, r, err)
		return
	}

	h.Audit.CommentDeleted(ctx, r, uid, existing.TaskID, id)
	w.WriteHeader(http.StatusNoContent)
}
