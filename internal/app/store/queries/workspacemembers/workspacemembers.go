// internal/app/store/queries/workspacemembers/workspacemembers.go
package workspacemembers

import (
	"context"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type WorkspaceMember struct {
	User models.User `bson:"user" json:"user"`
	Role string      `bson:"role" json:"role"`
}

// List returns a workspace's members joined with their user records,
// ordered owner, admin, member, teacher, then by folded name.
// Memberships whose user no longer exists are skipped.
func List(ctx context.Context, db *mongo.Database, workspaceID string) ([]WorkspaceMember, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"workspace_id": workspaceID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"role_rank": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$eq": bson.A{"$role", "owner"}}, "then": 0},
					bson.M{"case": bson.M{"$eq": bson.A{"$role", "admin"}}, "then": 1},
					bson.M{"case": bson.M{"$eq": bson.A{"$role", "member"}}, "then": 2},
				},
				"default": 3,
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "role_rank", Value: 1},
			{Key: "user.name_ci", Value: 1},
			{Key: "user._id", Value: 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"user": "$user", "role": 1}}},
	}

	cur, err := db.Collection("workspace_members").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []WorkspaceMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
