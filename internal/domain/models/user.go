// internal/domain/models/user.go
package models

import (
	"time"
)

// User is an account that can hold memberships in any number of workspaces.
//
// NOTE:
//   - Workspace roles are not embedded on User.
//     Use the workspace_members collection to discover a user's role in a workspace.
type User struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email  string `bson:"email" json:"email"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
