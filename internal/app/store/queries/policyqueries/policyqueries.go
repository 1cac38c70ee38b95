// Package policyqueries resolves tasks, projects and workspaces for
// authorization decisions.
package policyqueries

import (
	"context"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	workspacestore "github.com/dalemusser/taskhub/internal/app/store/workspaces"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Resolver implements taskpolicy.Resolver against MongoDB.
type Resolver struct {
	tasks      *mongo.Collection
	projects   *mongo.Collection
	workspaces *workspacestore.Store
}

func New(db *mongo.Database) *Resolver {
	return &Resolver{
		tasks:      db.Collection("tasks"),
		projects:   db.Collection("projects"),
		workspaces: workspacestore.New(db),
	}
}

var _ taskpolicy.Resolver = (*Resolver)(nil)

// ResolveTaskContext joins the task to its project and returns the owning
// workspace and the task's creator. A task whose project no longer exists
// does not resolve.
func (r *Resolver) ResolveTaskContext(ctx context.Context, taskID string) (taskpolicy.TaskContext, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": taskID}}},
		bson.D{{Key: "$limit", Value: 1}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "projects",
			"localField":   "project_id",
			"foreignField": "_id",
			"as":           "project",
		}}},
		bson.D{{Key: "$unwind", Value: "$project"}},
		bson.D{{Key: "$project", Value: bson.M{
			"workspace_id": "$project.workspace_id",
			"created_by":   1,
		}}},
	}

	cur, err := r.tasks.Aggregate(ctx, pipe)
	if err != nil {
		return taskpolicy.TaskContext{}, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return taskpolicy.TaskContext{}, err
		}
		return taskpolicy.TaskContext{}, fmt.Errorf("task %s: %w", taskID, authz.ErrNotFound)
	}

	var row struct {
		WorkspaceID string `bson:"workspace_id"`
		CreatedBy   string `bson:"created_by"`
	}
	if err := cur.Decode(&row); err != nil {
		return taskpolicy.TaskContext{}, err
	}
	if row.WorkspaceID == "" {
		return taskpolicy.TaskContext{}, fmt.Errorf("task %s has no workspace: %w", taskID, authz.ErrNotFound)
	}
	return taskpolicy.TaskContext{WorkspaceID: row.WorkspaceID, CreatorID: row.CreatedBy}, nil
}

// ResolveProjectWorkspace returns the workspace that owns the project.
func (r *Resolver) ResolveProjectWorkspace(ctx context.Context, projectID string) (string, error) {
	var row struct {
		WorkspaceID string `bson:"workspace_id"`
	}
	err := r.projects.FindOne(ctx,
		bson.M{"_id": projectID},
		options.FindOne().SetProjection(bson.M{"workspace_id": 1}),
	).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return "", fmt.Errorf("project %s: %w", projectID, authz.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if row.WorkspaceID == "" {
		return "", fmt.Errorf("project %s has no workspace: %w", projectID, authz.ErrNotFound)
	}
	return row.WorkspaceID, nil
}

// ResolveWorkspace checks that the workspace exists.
func (r *Resolver) ResolveWorkspace(ctx context.Context, workspaceID string) error {
	ok, err := r.workspaces.Exists(ctx, workspaceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("workspace %s: %w", workspaceID, authz.ErrNotFound)
	}
	return nil
}
