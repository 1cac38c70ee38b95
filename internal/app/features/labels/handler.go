// internal/app/features/labels/handler.go
package labels

import (
	labelstore "github.com/dalemusser/taskhub/internal/app/store/labels"
	"github.com/dalemusser/taskhub/internal/app/store/queries/policyqueries"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves workspace labels. A label attached to a task is guarded by
// the assignLabel decision on that task; a free label by the same decision
// on its workspace.
type Handler struct {
	Labels   *labelstore.Store
	Tasks    *taskstore.Store
	Resolver *policyqueries.Resolver

	Gate *gates.Gate
	Log  *zap.Logger
}

func NewHandler(db *mongo.Database, gate *gates.Gate, logger *zap.Logger) *Handler {
	return &Handler{
		Labels:   labelstore.New(db),
		Tasks:    taskstore.New(db),
		Resolver: policyqueries.New(db),
		Gate:     gate,
		Log:      logger,
	}
}
