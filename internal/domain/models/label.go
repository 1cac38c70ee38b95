// internal/domain/models/label.go
package models

import "time"

// Label is a colored tag owned by a workspace and optionally attached to a task.
type Label struct {
	ID          string    `bson:"_id" json:"id"`
	WorkspaceID string    `bson:"workspace_id" json:"workspace_id"`
	TaskID      string    `bson:"task_id,omitempty" json:"task_id,omitempty"`
	Name        string    `bson:"name" json:"name"`
	Color       string    `bson:"color" json:"color"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
