// Package gates is the handler-side entry to authorization.
//
// Route middleware (auth.RequireSignedIn) only establishes who the caller
// is. Every task, comment, label and member handler then passes through a Gate,
// which asks the policy engine about the specific resource and, on refusal,
// records the denial and writes the error response.
//
// A handler that gets ok=false must return without writing anything else.
package gates

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Authorizer is the part of the policy engine a Gate needs.
type Authorizer interface {
	Authorize(ctx context.Context, actorID string, action taskpolicy.Action, resourceID string) error
	AuthorizeWorkspace(ctx context.Context, actorID string, action taskpolicy.Action, workspaceID string) error
}

// Gate checks policy for one request.
type Gate struct {
	Policy Authorizer
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func New(policy Authorizer, audit *auditlog.Logger, logger *zap.Logger) *Gate {
	return &Gate{Policy: policy, Audit: audit, Log: logger}
}

// RequireUser returns the caller's ID or writes 401.
func (g *Gate) RequireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := authz.UserID(r)
	if !ok {
		apiresp.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return "", false
	}
	return uid, true
}

// Require authorizes action on resourceID for the signed-in caller.
// It returns the caller's ID when allowed; otherwise it has already
// written 401, 403, 404 or 500.
func (g *Gate) Require(w http.ResponseWriter, r *http.Request, action taskpolicy.Action, resourceID string) (string, bool) {
	uid, ok := g.RequireUser(w, r)
	if !ok {
		return "", false
	}
	if err := g.Policy.Authorize(r.Context(), uid, action, resourceID); err != nil {
		g.Fail(w, r, err)
		return "", false
	}
	return uid, true
}

// RequireWorkspace is Require for an action on a workspace as a whole.
func (g *Gate) RequireWorkspace(w http.ResponseWriter, r *http.Request, action taskpolicy.Action, workspaceID string) (string, bool) {
	uid, ok := g.RequireUser(w, r)
	if !ok {
		return "", false
	}
	if err := g.Policy.AuthorizeWorkspace(r.Context(), uid, action, workspaceID); err != nil {
		g.Fail(w, r, err)
		return "", false
	}
	return uid, true
}

// Fail writes err as a response, auditing it first if it is a denial.
func (g *Gate) Fail(w http.ResponseWriter, r *http.Request, err error) {
	var denied *taskpolicy.DeniedError
	if errors.As(err, &denied) {
		uid, _ := authz.UserID(r)
		g.Audit.PermissionDenied(r.Context(), r, uid, denied.WorkspaceID, string(denied.Action), denied.ResourceID)
	}
	apiresp.Error(w, r, g.Log, err)
}
