// internal/domain/models/activity.go
package models

import "time"

// ActivityTypeComment marks entries authored directly by a user. All other
// types are derived from task events by the activity recorder.
const ActivityTypeComment = "comment"

// ActivityEntry is one line of a task's activity trail.
//
// Entries of type "comment" are written by the comment mutator and may be
// edited or deleted by their author. Every other entry is append-only.
type ActivityEntry struct {
	ID        string     `bson:"_id" json:"id"`
	TaskID    string     `bson:"task_id" json:"task_id"`
	Type      string     `bson:"type" json:"type"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Content   string     `bson:"content" json:"content"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsComment reports whether the entry is a user-authored comment.
func (e ActivityEntry) IsComment() bool {
	return e.Type == ActivityTypeComment
}
