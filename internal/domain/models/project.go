// internal/domain/models/project.go
package models

import "time"

// Project groups tasks inside a workspace.
type Project struct {
	ID          string    `bson:"_id" json:"id"`
	WorkspaceID string    `bson:"workspace_id" json:"workspace_id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	IsPublic    bool      `bson:"is_public" json:"is_public"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
