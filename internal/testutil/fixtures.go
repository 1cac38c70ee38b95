// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateWorkspace creates a test workspace with the given name.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string) models.Workspace {
	f.t.Helper()

	ws := models.Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      "ws-" + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// CreateUser creates a test user.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMembership gives userID the role in workspaceID.
func (f *Fixtures) CreateMembership(ctx context.Context, workspaceID, userID, role string) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("workspace_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateProject creates a project in the workspace.
func (f *Fixtures) CreateProject(ctx context.Context, workspaceID, name string) models.Project {
	f.t.Helper()

	p := models.Project{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Slug:        "p-" + uuid.NewString()[:8],
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTask creates a task in the project, created by createdBy.
func (f *Fixtures) CreateTask(ctx context.Context, projectID, title, createdBy string) models.Task {
	f.t.Helper()

	n, err := f.db.Collection("tasks").CountDocuments(ctx, bson.M{"project_id": projectID})
	if err != nil {
		f.t.Fatalf("failed to count tasks: %v", err)
	}
	task := models.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Number:    int(n) + 1,
		Position:  int(n),
		Title:     title,
		Status:    models.DefaultTaskStatus,
		Priority:  models.DefaultTaskPriority,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateComment writes a comment entry authored by userID on taskID.
func (f *Fixtures) CreateComment(ctx context.Context, taskID, userID, content string) models.ActivityEntry {
	f.t.Helper()

	e := models.ActivityEntry{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      models.ActivityTypeComment,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("activities").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return e
}
