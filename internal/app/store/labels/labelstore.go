// internal/app/store/labels/labelstore.go
package labelstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("label not found")
	ErrNameRequired = errors.New("label name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("labels")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_label_workspace"),
		},
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}},
			Options: options.Index().SetName("idx_label_task"),
		},
	})
	return err
}

// Create inserts a label, optionally attached to a task.
func (s *Store) Create(ctx context.Context, l models.Label) (models.Label, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return models.Label{}, ErrNameRequired
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Label{}, err
	}
	return l, nil
}

// GetByID returns a label.
func (s *Store) GetByID(ctx context.Context, id string) (models.Label, error) {
	var l models.Label
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return models.Label{}, ErrNotFound
	}
	return l, err
}

// ListByTask returns the labels attached to a task.
func (s *Store) ListByTask(ctx context.Context, taskID string) ([]models.Label, error) {
	return s.find(ctx, bson.M{"task_id": taskID})
}

// ListByWorkspace returns every label of a workspace.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Label, error) {
	return s.find(ctx, bson.M{"workspace_id": workspaceID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Label, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	labels := []models.Label{}
	if err := cur.All(ctx, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// Update changes a label's name and color and returns the updated label.
func (s *Store) Update(ctx context.Context, id, name, color string) (models.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Label{}, ErrNameRequired
	}
	var l models.Label
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "color": color}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return models.Label{}, ErrNotFound
	}
	return l, err
}

// Delete removes a label.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByTask removes every label attached to a task.
func (s *Store) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
