// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators we log and
// skip.
//
// Membership roles are deliberately not enumerated: legacy and unknown
// labels must stay readable so the policy engine can fail closed on them.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("workspaces", workspacesSchema())
	ensure("workspace_members", membershipsSchema())
	ensure("projects", projectsSchema())
	ensure("tasks", tasksSchema())
	ensure("activities", activitiesSchema())
	ensure("labels", labelsSchema())
	ensure("invitations", invitationsSchema())

	// Append-only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func object(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return object(bson.A{"name", "email"}, bson.M{
		"name":  bson.M{"bsonType": "string"},
		"email": nonBlank,
	})
}

func workspacesSchema() bson.M {
	return object(bson.A{"name", "slug"}, bson.M{
		"name": nonBlank,
		"slug": nonBlank,
	})
}

func membershipsSchema() bson.M {
	return object(bson.A{"workspace_id", "user_id", "role"}, bson.M{
		"workspace_id": nonBlank,
		"user_id":      nonBlank,
		"role":         bson.M{"bsonType": "string"},
	})
}

func projectsSchema() bson.M {
	return object(bson.A{"workspace_id", "name"}, bson.M{
		"workspace_id": nonBlank,
		"name":         nonBlank,
	})
}

func tasksSchema() bson.M {
	return object(bson.A{"project_id", "title", "number", "status", "priority"}, bson.M{
		"project_id": nonBlank,
		"title":      nonBlank,
		"number":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
		"status":     nonBlank,
		"priority":   nonBlank,
		"due_date":   bson.M{"bsonType": bson.A{"date", "null"}},
	})
}

func activitiesSchema() bson.M {
	return object(bson.A{"task_id", "type", "user_id", "created_at"}, bson.M{
		"task_id":    nonBlank,
		"type":       nonBlank,
		"user_id":    nonBlank,
		"content":    bson.M{"bsonType": "string"},
		"created_at": bson.M{"bsonType": "date"},
	})
}

func labelsSchema() bson.M {
	return object(bson.A{"workspace_id", "name", "color"}, bson.M{
		"workspace_id": nonBlank,
		"name":         nonBlank,
		"color":        bson.M{"bsonType": "string", "pattern": "^#[0-9a-fA-F]{6}$"},
	})
}

func invitationsSchema() bson.M {
	return object(bson.A{"workspace_id", "email", "token_hash", "status", "expires_at"}, bson.M{
		"workspace_id": nonBlank,
		"email":        nonBlank,
		"token_hash":   nonBlank,
		"status":       bson.M{"enum": bson.A{"pending", "accepted", "revoked"}},
		"expires_at":   bson.M{"bsonType": "date"},
	})
}
