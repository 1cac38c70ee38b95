// internal/app/store/activity/store.go
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when an activity entry does not exist.
	ErrNotFound = errors.New("activity entry not found")
	// ErrTaskGone is returned by Record when the entry's task does not exist.
	ErrTaskGone = errors.New("task no longer exists")
)

// Store manages a task's activity trail: recorder entries and comments.
type Store struct {
	c     *mongo.Collection
	tasks *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities"), tasks: db.Collection("tasks")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Trail for a task in chronological order
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_activity_task"),
		},
		// Activity by user
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create records a new entry, assigning an ID and timestamp when absent.
func (s *Store) Create(ctx context.Context, e models.ActivityEntry) (models.ActivityEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.ActivityEntry{}, err
	}
	return e, nil
}

// Record writes e only while its task exists.
//
// The task is checked before the insert and again after it. Deleting a task
// removes the task before its trail, so an entry inserted while a delete
// runs is either swept by that delete or removed here.
func (s *Store) Record(ctx context.Context, e models.ActivityEntry) (models.ActivityEntry, error) {
	if ok, err := s.taskExists(ctx, e.TaskID); err != nil || !ok {
		if err == nil {
			err = ErrTaskGone
		}
		return models.ActivityEntry{}, err
	}
	saved, err := s.Create(ctx, e)
	if err != nil {
		return models.ActivityEntry{}, err
	}
	ok, err := s.taskExists(ctx, e.TaskID)
	if err != nil {
		return models.ActivityEntry{}, err
	}
	if !ok {
		if err := s.Delete(ctx, saved.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return models.ActivityEntry{}, err
		}
		return models.ActivityEntry{}, ErrTaskGone
	}
	return saved, nil
}

func (s *Store) taskExists(ctx context.Context, taskID string) (bool, error) {
	n, err := s.tasks.CountDocuments(ctx, bson.M{"_id": taskID}, options.Count().SetLimit(1))
	return n > 0, err
}

// Get returns one entry by ID.
func (s *Store) Get(ctx context.Context, id string) (models.ActivityEntry, error) {
	var e models.ActivityEntry
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.ActivityEntry{}, ErrNotFound
	}
	return e, err
}

// ListByTask returns a task's entries oldest first.
func (s *Store) ListByTask(ctx context.Context, taskID string) ([]models.ActivityEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := []models.ActivityEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// commentBy matches comment id only while authorID is its author.
func commentBy(id, authorID string) bson.M {
	return bson.M{"_id": id, "user_id": authorID, "type": models.ActivityTypeComment}
}

// UpdateComment replaces the content of a comment written by authorID and
// stamps updated_at. It returns the updated entry, or ErrNotFound when no
// such comment by that author exists.
func (s *Store) UpdateComment(ctx context.Context, id, authorID, content string) (models.ActivityEntry, error) {
	now := time.Now().UTC()
	var e models.ActivityEntry
	err := s.c.FindOneAndUpdate(ctx,
		commentBy(id, authorID),
		bson.M{"$set": bson.M{"content": content, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.ActivityEntry{}, ErrNotFound
	}
	return e, err
}

// DeleteComment removes a comment written by authorID.
func (s *Store) DeleteComment(ctx context.Context, id, authorID string) error {
	res, err := s.c.DeleteOne(ctx, commentBy(id, authorID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one entry.
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

// DeleteByTask removes a task's whole trail.
// Returns the number of documents deleted.
func (s *Store) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
