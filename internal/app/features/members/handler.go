// internal/app/features/members/handler.go
package members

import (
	"time"

	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/rolemap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Default accept limit: attempts per user per window.
const (
	DefaultAcceptBurst  = 10
	DefaultAcceptWindow = 15 * time.Minute
)

// Handler serves workspace membership: the member list, invitations and
// invitation acceptance.
type Handler struct {
	DB          *mongo.Database
	Memberships *membershipstore.Store
	Invitations *invitationstore.Store
	Users       *userstore.Store
	Roles       *rolemap.Mapper

	// Attempts bounds invitation accepts per user, so tokens cannot be
	// guessed by repetition.
	Attempts *ratelimit.Limiter

	Gate     *gates.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, invitations *invitationstore.Store, roles *rolemap.Mapper, gate *gates.Gate, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Memberships: membershipstore.New(db),
		Invitations: invitations,
		Users:       userstore.New(db),
		Roles:       roles,
		Attempts:    ratelimit.New(DefaultAcceptBurst, DefaultAcceptWindow),
		Gate:        gate,
		AuditLog:    audit,
		Log:         logger,
	}
}
