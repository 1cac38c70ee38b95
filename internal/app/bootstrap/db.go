// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	labelstore "github.com/dalemusser/taskhub/internal/app/store/labels"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	projectstore "github.com/dalemusser/taskhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/taskhub/internal/app/store/workspaces"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	return DBDeps{
		TaskHubMongoClient:   client,
		TaskHubMongoDatabase: client.Database(appCfg.MongoDatabase),
		Services:             &Services{},
	}, nil
}

// EnsureSchema creates collections with their validators, then indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.TaskHubMongoDatabase
	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("validators: %w", err)
	}
	return indexes.EnsureAll(ctx, logger,
		indexes.Collection{Name: "users", Store: userstore.New(db)},
		indexes.Collection{Name: "workspaces", Store: workspacestore.New(db)},
		indexes.Collection{Name: "workspace_members", Store: membershipstore.New(db)},
		indexes.Collection{Name: "projects", Store: projectstore.New(db)},
		indexes.Collection{Name: "tasks", Store: taskstore.New(db)},
		indexes.Collection{Name: "activities", Store: activity.New(db)},
		indexes.Collection{Name: "labels", Store: labelstore.New(db)},
		indexes.Collection{Name: "invitations", Store: invitationstore.New(db, appCfg.InvitationExpiry)},
		indexes.Collection{Name: "audit_events", Store: audit.New(db)},
	)
}
