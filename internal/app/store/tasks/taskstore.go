// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrTitleMissing = errors.New("task title is required")
)

// numberRetries bounds how often Create retries after losing a race for
// the next task number in a project.
const numberRetries = 5

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// EnsureIndexes creates the per-project number index and the assignee index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_project_number"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetName("idx_task_position"),
		},
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}},
			Options: options.Index().SetName("idx_task_assignee"),
		},
	})
	return err
}

// Create inserts a task, assigning its ID, the next number in the project,
// a trailing position and default status/priority.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, ErrTitleMissing
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.DefaultTaskStatus
	}
	if t.Priority == "" {
		t.Priority = models.DefaultTaskPriority
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	for attempt := 0; ; attempt++ {
		next, err := s.nextNumber(ctx, t.ProjectID)
		if err != nil {
			return models.Task{}, err
		}
		t.Number = next
		t.Position = next - 1

		_, err = s.c.InsertOne(ctx, t)
		if err == nil {
			return t, nil
		}
		if !wafflemongo.IsDup(err) || attempt >= numberRetries {
			return models.Task{}, err
		}
	}
}

func (s *Store) nextNumber(ctx context.Context, projectID string) (int, error) {
	var last struct {
		Number int `bson:"number"`
	}
	err := s.c.FindOne(ctx,
		bson.M{"project_id": projectID},
		options.FindOne().
			SetSort(bson.D{{Key: "number", Value: -1}}).
			SetProjection(bson.M{"number": 1}),
	).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Number + 1, nil
}

// GetByID returns a task.
func (s *Store) GetByID(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, ErrNotFound
	}
	return t, err
}

// Exists reports whether the task exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListByProject returns a project's tasks ordered by position.
// If status is non-empty only tasks with that status are returned.
func (s *Store) ListByProject(ctx context.Context, projectID, status string) ([]models.Task, error) {
	filter := bson.M{"project_id": projectID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// The Update* methods apply a single-field change and return the task as
// it was before the change, so callers can describe what changed.

func (s *Store) UpdateStatus(ctx context.Context, id, status string) (models.Task, error) {
	return s.swap(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (s *Store) UpdatePriority(ctx context.Context, id, priority string) (models.Task, error) {
	return s.swap(ctx, id, bson.M{"$set": bson.M{"priority": priority}})
}

func (s *Store) UpdateTitle(ctx context.Context, id, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, ErrTitleMissing
	}
	return s.swap(ctx, id, bson.M{"$set": bson.M{"title": title}})
}

func (s *Store) UpdateDescription(ctx context.Context, id, description string) (models.Task, error) {
	return s.swap(ctx, id, bson.M{"$set": bson.M{"description": description}})
}

// UpdateAssignee sets the assignee; an empty assigneeID unassigns.
func (s *Store) UpdateAssignee(ctx context.Context, id, assigneeID string) (models.Task, error) {
	if assigneeID == "" {
		return s.swap(ctx, id, bson.M{"$unset": bson.M{"assignee_id": ""}})
	}
	return s.swap(ctx, id, bson.M{"$set": bson.M{"assignee_id": assigneeID}})
}

// UpdateDueDate sets the due date; nil clears it.
func (s *Store) UpdateDueDate(ctx context.Context, id string, due *time.Time) (models.Task, error) {
	if due == nil {
		return s.swap(ctx, id, bson.M{"$unset": bson.M{"due_date": ""}})
	}
	return s.swap(ctx, id, bson.M{"$set": bson.M{"due_date": due.UTC()}})
}

// Changes is a partial task update; nil fields are left as they are.
type Changes struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	// AssigneeID set to "" unassigns.
	AssigneeID *string
	// DueDate is applied when SetDueDate is true; nil clears it.
	DueDate    *time.Time
	SetDueDate bool
	Position   *int
	// ProjectID moves the task; it gets the next number in that project.
	ProjectID *string
}

// Update applies c in one write and returns the task as it was before.
func (s *Store) Update(ctx context.Context, id string, c Changes) (models.Task, error) {
	set, unset := bson.M{}, bson.M{}
	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if title == "" {
			return models.Task{}, ErrTitleMissing
		}
		set["title"] = title
	}
	if c.Description != nil {
		set["description"] = *c.Description
	}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	if c.Priority != nil {
		set["priority"] = *c.Priority
	}
	if c.AssigneeID != nil {
		if *c.AssigneeID == "" {
			unset["assignee_id"] = ""
		} else {
			set["assignee_id"] = *c.AssigneeID
		}
	}
	if c.SetDueDate {
		if c.DueDate == nil {
			unset["due_date"] = ""
		} else {
			set["due_date"] = c.DueDate.UTC()
		}
	}
	if c.Position != nil {
		set["position"] = *c.Position
	}

	if c.ProjectID == nil {
		if len(set) == 0 && len(unset) == 0 {
			return s.GetByID(ctx, id)
		}
		return s.swap(ctx, id, updateDoc(set, unset))
	}

	for attempt := 0; ; attempt++ {
		next, err := s.nextNumber(ctx, *c.ProjectID)
		if err != nil {
			return models.Task{}, err
		}
		set["project_id"] = *c.ProjectID
		set["number"] = next
		before, err := s.swap(ctx, id, updateDoc(set, unset))
		if err == nil {
			return before, nil
		}
		if !wafflemongo.IsDup(err) || attempt >= numberRetries {
			return models.Task{}, err
		}
	}
}

func updateDoc(set, unset bson.M) bson.M {
	doc := bson.M{}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

func (s *Store) swap(ctx context.Context, id string, update bson.M) (models.Task, error) {
	var before models.Task
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, ErrNotFound
	}
	return before, err
}

// Delete removes a task.
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

// DeleteByProject removes all tasks of a project and returns their IDs so
// callers can clean up dependent documents.
func (s *Store) DeleteByProject(ctx context.Context, projectID string) ([]string, error) {
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return nil, err
	}
	return ids, nil
}
