// internal/app/features/comments/handler.go
package comments

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EntryStore is the part of the activity store the comment handlers use.
// The comment writes match on the author, so a write never lands on
// someone else's comment.
type EntryStore interface {
	Record(ctx context.Context, e models.ActivityEntry) (models.ActivityEntry, error)
	Get(ctx context.Context, id string) (models.ActivityEntry, error)
	ListByTask(ctx context.Context, taskID string) ([]models.ActivityEntry, error)
	UpdateComment(ctx context.Context, id, authorID, content string) (models.ActivityEntry, error)
	DeleteComment(ctx context.Context, id, authorID string) error
}

var _ EntryStore = (*activity.Store)(nil)

// Handler serves a task's activity feed and the comment mutators.
//
// Creating a comment is a policy decision (comment on the task). Editing or
// deleting one is decided by authorship alone: only the author may change
// their comment, and only entries of type "comment" can be changed.
type Handler struct {
	Activity EntryStore
	Tasks    *taskstore.Store
	Users    *userstore.Store

	Gate  *gates.Gate
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, gate *gates.Gate, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Activity: activity.New(db),
		Tasks:    taskstore.New(db),
		Users:    userstore.New(db),
		Gate:     gate,
		Audit:    audit,
		Log:      logger,
	}
}
