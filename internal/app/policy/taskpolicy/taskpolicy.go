// Package taskpolicy provides the authorization policy for projects, tasks,
// comments and labels.
//
// Authorization rules (per resolved workspace):
//   - Any member of the workspace (owner, admin, member, teacher) can read
//     a project's tasks, create tasks, comment on tasks and assign labels
//   - Owners, admins and members can modify any task in the workspace
//   - Teachers can modify only tasks they created
//   - Any member can list the workspace's members and labels and manage
//     labels that are not attached to a task
//   - Only owners and admins can manage members and invitations
//   - Users without a membership in the workspace can do nothing
//
// A decision is always made against the workspace a resource resolves to.
// A resource that does not resolve yields authz.ErrNotFound, which callers
// must keep distinct from a denial.
package taskpolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Action is one of the fixed operations the engine decides on.
type Action string

const (
	ActionRead        Action = "read"
	ActionCreate      Action = "create"
	ActionModify      Action = "modify"
	ActionComment     Action = "comment"
	ActionAssignLabel Action = "assignLabel"

	// ActionManageMembers is workspace-scoped only.
	ActionManageMembers Action = "manageMembers"
)

// TaskContext is what a task resolves to for authorization.
type TaskContext struct {
	WorkspaceID string
	CreatorID   string
}

// Resolver maps resources to their owning workspace.
// Every method returns an error wrapping authz.ErrNotFound when the id does not resolve.
type Resolver interface {
	ResolveTaskContext(ctx context.Context, taskID string) (TaskContext, error)
	ResolveProjectWorkspace(ctx context.Context, projectID string) (string, error)
	ResolveWorkspace(ctx context.Context, workspaceID string) error
}

// RoleStore reads a user's membership role in a workspace.
// ok=false means the user has no membership there.
type RoleStore interface {
	RoleOf(ctx context.Context, userID, workspaceID string) (role authz.Role, ok bool, err error)
}

// Engine evaluates authorization decisions. It performs reads only.
type Engine struct {
	roles     RoleStore
	resources Resolver
	log       *zap.Logger
}

// New creates an Engine backed by the given role store and resolver.
func New(roles RoleStore, resources Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{roles: roles, resources: resources, log: logger}
}

// Allowed is the rule table. It reports whether role may perform action;
// isCreator is only consulted for ActionModify.
func Allowed(role authz.Role, action Action, isCreator bool) bool {
	if !role.Valid() {
		return false
	}
	switch action {
	case ActionRead, ActionCreate:
		return true
	case ActionComment:
		return true
	case ActionAssignLabel:
		return true
	case ActionManageMembers:
		return role.IsManager()
	case ActionModify:
		if role == authz.RoleTeacher {
			return isCreator
		}
		return true
	default:
		return false
	}
}

// RoleOf returns the actor's role in the workspace, or ok=false without a membership.
// A stored role outside the enumerated set is treated as no membership.
func (e *Engine) RoleOf(ctx context.Context, actorID, workspaceID string) (authz.Role, bool, error) {
	if actorID == "" || workspaceID == "" {
		return "", false, nil
	}
	role, ok, err := e.roles.RoleOf(ctx, actorID, workspaceID)
	if err != nil {
		return "", false, fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	if !role.Valid() {
		e.log.Warn("ignoring unknown workspace role",
			zap.String("user_id", actorID),
			zap.String("workspace_id", workspaceID),
			zap.String("role", string(role)))
		return "", false, nil
	}
	return role, true, nil
}

// CanRead reports whether the actor can read tasks in the project.
func (e *Engine) CanRead(ctx context.Context, actorID, projectID string) (bool, error) {
	_, ok, err := e.decideProject(ctx, actorID, projectID, ActionRead)
	return ok, err
}

// CanCreate reports whether the actor can create tasks in the project.
func (e *Engine) CanCreate(ctx context.Context, actorID, projectID string) (bool, error) {
	_, ok, err := e.decideProject(ctx, actorID, projectID, ActionCreate)
	return ok, err
}

// CanModify reports whether the actor can update or delete the task.
func (e *Engine) CanModify(ctx context.Context, actorID, taskID string) (bool, error) {
	_, ok, err := e.decideTask(ctx, actorID, taskID, ActionModify)
	return ok, err
}

// CanComment reports whether the actor can comment on the task.
func (e *Engine) CanComment(ctx context.Context, actorID, taskID string) (bool, error) {
	_, ok, err := e.decideTask(ctx, actorID, taskID, ActionComment)
	return ok, err
}

// CanAssignLabel reports whether the actor can attach labels to or remove
// labels from the task.
func (e *Engine) CanAssignLabel(ctx context.Context, actorID, taskID string) (bool, error) {
	_, ok, err := e.decideTask(ctx, actorID, taskID, ActionAssignLabel)
	return ok, err
}

// DeniedError is returned by Authorize when the resource resolved but the
// actor may not act on it. It unwraps to authz.ErrPermissionDenied.
type DeniedError struct {
	Action      Action
	ResourceID  string
	WorkspaceID string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s on %s: %s", e.Action, e.ResourceID, authz.ErrPermissionDenied)
}

func (e *DeniedError) Unwrap() error { return authz.ErrPermissionDenied }

// Authorize is the single entry point for mutators. resourceID is a project
// ID for read/create and a task ID for every other action.
//
// Returns nil when allowed, an error wrapping authz.ErrNotFound when the
// resource does not resolve, and a *DeniedError when the actor is not allowed.
func (e *Engine) Authorize(ctx context.Context, actorID string, action Action, resourceID string) error {
	var (
		workspaceID string
		ok          bool
		err         error
	)
	switch action {
	case ActionRead, ActionCreate:
		workspaceID, ok, err = e.decideProject(ctx, actorID, resourceID, action)
	case ActionModify, ActionComment, ActionAssignLabel:
		workspaceID, ok, err = e.decideTask(ctx, actorID, resourceID, action)
	default:
		return &DeniedError{Action: action, ResourceID: resourceID}
	}
	if err != nil {
		return err
	}
	if !ok {
		return &DeniedError{Action: action, ResourceID: resourceID, WorkspaceID: workspaceID}
	}
	return nil
}

// AuthorizeWorkspace decides an action on a workspace as a whole:
// ActionRead for its member and label lists, ActionAssignLabel for labels
// not attached to a task, ActionManageMembers for invitations.
// Results follow Authorize.
func (e *Engine) AuthorizeWorkspace(ctx context.Context, actorID string, action Action, workspaceID string) error {
	switch action {
	case ActionRead, ActionAssignLabel, ActionManageMembers:
	default:
		return &DeniedError{Action: action, ResourceID: workspaceID, WorkspaceID: workspaceID}
	}
	if err := e.resources.ResolveWorkspace(ctx, workspaceID); err != nil {
		return wrapResolve("workspace", workspaceID, err)
	}
	role, ok, err := e.RoleOf(ctx, actorID, workspaceID)
	if err != nil {
		return err
	}
	if !ok || !Allowed(role, action, false) {
		return &DeniedError{Action: action, ResourceID: workspaceID, WorkspaceID: workspaceID}
	}
	return nil
}

func (e *Engine) decideProject(ctx context.Context, actorID, projectID string, action Action) (string, bool, error) {
	workspaceID, err := e.resources.ResolveProjectWorkspace(ctx, projectID)
	if err != nil {
		return "", false, wrapResolve("project", projectID, err)
	}
	role, ok, err := e.RoleOf(ctx, actorID, workspaceID)
	if err != nil || !ok {
		return workspaceID, false, err
	}
	return workspaceID, Allowed(role, action, false), nil
}

func (e *Engine) decideTask(ctx context.Context, actorID, taskID string, action Action) (string, bool, error) {
	tc, err := e.resources.ResolveTaskContext(ctx, taskID)
	if err != nil {
		return "", false, wrapResolve("task", taskID, err)
	}
	role, ok, err := e.RoleOf(ctx, actorID, tc.WorkspaceID)
	if err != nil || !ok {
		return tc.WorkspaceID, false, err
	}
	isCreator := tc.CreatorID != "" && tc.CreatorID == actorID
	return tc.WorkspaceID, Allowed(role, action, isCreator), nil
}

func wrapResolve(kind, id string, err error) error {
	if errors.Is(err, authz.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, authz.ErrNotFound)
	}
	return fmt.Errorf("resolve %s %s: %w", kind, id, err)
}
