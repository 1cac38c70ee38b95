// internal/domain/models/task.go
package models

import "time"

// Task status and priority defaults applied when a create request leaves them blank.
const (
	DefaultTaskStatus   = "to-do"
	DefaultTaskPriority = "low"
)

// Task is a unit of work inside a project.
//
// CreatedBy is the user who created the task. It can be empty when the
// creating account has since been removed; an empty creator never matches
// any actor for ownership checks.
type Task struct {
	ID          string     `bson:"_id" json:"id"`
	ProjectID   string     `bson:"project_id" json:"project_id"`
	Number      int        `bson:"number" json:"number"`
	Position    int        `bson:"position" json:"position"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Status      string     `bson:"status" json:"status"`
	Priority    string     `bson:"priority" json:"priority"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	AssigneeID  string     `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	CreatedBy   string     `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}
