// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and writes workspace_members, the single source of truth
// for a user's role in a workspace.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_members")}
}

var errBadRole = errors.New(`role must be "owner", "admin", "member" or "teacher"`)

var (
	ErrDuplicateMembership = errors.New("user is already a member of this workspace")
	ErrNotFound            = errors.New("membership not found")
)

// EnsureIndexes creates the unique (workspace_id, user_id) index and the
// per-user lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_workspace_member"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_member_user"),
		},
	})
	return err
}

// RoleOf returns the user's role in the workspace. ok=false means there is
// no membership, or the stored role is not one of the known roles.
func (s *Store) RoleOf(ctx context.Context, userID, workspaceID string) (authz.Role, bool, error) {
	var doc struct {
		Role string `bson:"role"`
	}
	err := s.c.FindOne(ctx,
		bson.M{"workspace_id": workspaceID, "user_id": userID},
		options.FindOne().SetProjection(bson.M{"role": 1}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, ok := authz.ParseRole(doc.Role)
	return role, ok, nil
}

// Get returns the membership for (workspaceID, userID).
func (s *Store) Get(ctx context.Context, workspaceID, userID string) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Membership{}, ErrNotFound
	}
	return m, err
}

// Add creates a membership. It fails with ErrDuplicateMembership when the
// user already belongs to the workspace.
func (s *Store) Add(ctx context.Context, workspaceID, userID string, role authz.Role) (models.Membership, error) {
	if !role.Valid() {
		return models.Membership{}, errBadRole
	}
	now := time.Now().UTC()
	m := models.Membership{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role.String(),
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicateMembership
		}
		return models.Membership{}, err
	}
	return m, nil
}

// SetRole changes the role of an existing membership.
func (s *Store) SetRole(ctx context.Context, workspaceID, userID string, role authz.Role) error {
	if !role.Valid() {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"workspace_id": workspaceID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role.String(), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the membership document for (workspaceID, userID).
func (s *Store) Remove(ctx context.Context, workspaceID, userID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID})
	return err
}

// DeleteByWorkspace removes all memberships for a workspace.
// Returns the number of documents deleted.
func (s *Store) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByWorkspace returns all memberships for a workspace, optionally filtered by role.
// If role is empty, returns all memberships.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID string, role authz.Role) ([]models.Membership, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if role != "" {
		filter["role"] = role.String()
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.Membership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountByWorkspace returns the count of memberships in a workspace.
func (s *Store) CountByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"workspace_id": workspaceID})
}
