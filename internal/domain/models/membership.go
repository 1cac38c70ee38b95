// internal/domain/models/membership.go
package models

import (
	"time"
)

// Membership is the authoritative join between users and workspaces.
// Exactly one document per (workspace_id, user_id); role is a scalar
// ("owner" | "admin" | "member" | "teacher").
type Membership struct {
	ID          string    `bson:"_id" json:"id"`
	WorkspaceID string    `bson:"workspace_id" json:"workspace_id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Role        string    `bson:"role" json:"role"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
