// internal/domain/models/workspace.go
package models

import (
	"time"
)

// Workspace represents a top-level tenant container in TaskHub.
// Each workspace is isolated from others and owns its own:
// - Projects (and through them, tasks and activity)
// - Memberships (the user/role bindings the policy engine reads)
// - Labels
//
// Every project belongs to exactly one workspace via its workspace_id field,
// which is how tasks, labels and activity resolve to a tenant.
type Workspace struct {
	ID string `bson:"_id" json:"id"`

	// Display name for the workspace
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // Case-insensitive for search

	// Slug is unique across all workspaces
	Slug        string `bson:"slug" json:"slug"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
