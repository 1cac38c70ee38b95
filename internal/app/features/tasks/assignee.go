// internal/app/features/tasks/assignee.go
package tasks

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// MemberChecker reports whether a user belongs to the workspace that owns a
// project. The policy engine's CanRead answers exactly that.
type MemberChecker interface {
	CanRead(ctx context.Context, userID, projectID string) (bool, error)
}

// lookupAssignee returns the user a task in projectID is being assigned to.
// The user must exist and be a member of the project's workspace.
func (h *Handler) lookupAssignee(ctx context.Context, projectID, userID string) (models.User, error) {
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return models.User{}, apiresp.BadRequest("assignee %q does not exist", userID)
	}
	if err != nil {
		return models.User{}, err
	}
	ok, err := h.Members.CanRead(ctx, userID, projectID)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, apiresp.BadRequest("assignee %q is not a member of this workspace", userID)
	}
	return u, nil
}

// displayName is what activity entries show for an assignee.
func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
