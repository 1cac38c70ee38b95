// internal/app/features/tasks/handler.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/activity"
	labelstore "github.com/dalemusser/taskhub/internal/app/store/labels"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	projectstore "github.com/dalemusser/taskhub/internal/app/store/projects"
	"github.com/dalemusser/taskhub/internal/app/store/queries/policyqueries"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Publisher is the part of the event bus the task mutators use.
type Publisher interface {
	Publish(topic string, payload eventbus.Payload)
}

// Handler holds the dependencies of the task mutators. Every mutation runs
// authorize, then write, then publish; a refused or failed request
// publishes nothing.
type Handler struct {
	Tasks    *taskstore.Store
	Projects *projectstore.Store
	Users    *userstore.Store
	Activity *activity.Store
	Labels   *labelstore.Store

	// Members checks that assignees belong to the task's workspace.
	Members MemberChecker

	Gate *gates.Gate
	Bus  Publisher
	Log  *zap.Logger
}

func NewHandler(db *mongo.Database, gate *gates.Gate, bus Publisher, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:    taskstore.New(db),
		Projects: projectstore.New(db),
		Users:    userstore.New(db),
		Activity: activity.New(db),
		Labels:   labelstore.New(db),
		Members:  taskpolicy.New(membershipstore.New(db), policyqueries.New(db), logger),
		Gate:     gate,
		Bus:      bus,
		Log:      logger,
	}
}

// publish emits a task event with the fields every task event carries.
func (h *Handler) publish(topic, taskID, actorID, eventType string, extra eventbus.Payload) {
	p := eventbus.Payload{
		"taskId": taskID,
		"userId": actorID,
		"type":   eventType,
	}
	for k, v := range extra {
		p[k] = v
	}
	h.Bus.Publish(topic, p)
}
