// internal/app/system/authz/authz.go
package authz

import (
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
)

// Authorization outcomes shared by the policy engine, resolvers and mutators.
//
// ErrNotFound means the resource id did not resolve (HTTP 404).
// ErrPermissionDenied means it resolved but the caller may not act on it (HTTP 403).
var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// UserCtx returns the caller's user ID, display name and a found flag.
// If no user is present in context it returns "", "", false. Callers can
// trust that ok=true means an authenticated user with a non-empty ID.
func UserCtx(r *http.Request) (userID string, name string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", false
	}
	return user.ID, user.Name, true
}

// UserID is a convenience wrapper returning only the caller's ID.
func UserID(r *http.Request) (string, bool) {
	id, _, ok := UserCtx(r)
	return id, ok
}
