// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/rolemap"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds back-end dependencies for the app. ConnectDB fills the
// Mongo handles; Startup fills Services.
type DBDeps struct {
	TaskHubMongoClient   *mongo.Client
	TaskHubMongoDatabase *mongo.Database

	Services *Services
}

// Services are the process-wide collaborators built once in Startup and
// shared by the handlers.
type Services struct {
	Bus   *eventbus.Bus
	Audit *auditlog.Logger
	Roles *rolemap.Mapper
	Sweep *workers.InvitationSweep
}
