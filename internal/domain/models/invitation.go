// internal/domain/models/invitation.go
package models

import "time"

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// Invitation asks the holder of Email to join a workspace. The secret token
// handed to the inviter is stored only as a bcrypt hash.
type Invitation struct {
	ID          string     `bson:"_id" json:"id"`
	WorkspaceID string     `bson:"workspace_id" json:"workspace_id"`
	Email       string     `bson:"email" json:"email"`
	InviterID   string     `bson:"inviter_id" json:"inviter_id"`
	TokenHash   string     `bson:"token_hash" json:"-"`
	Status      string     `bson:"status" json:"status"`
	ExpiresAt   time.Time  `bson:"expires_at" json:"expires_at"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	AcceptedBy  string     `bson:"accepted_by,omitempty" json:"accepted_by,omitempty"`
	AcceptedAt  *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
}
