package activityrec_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/system/activityrec"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
)

type memEntries struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
	err     error
	gone    map[string]bool
}

func (m *memEntries) Record(_ context.Context, e models.ActivityEntry) (models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.ActivityEntry{}, m.err
	}
	if m.gone[e.TaskID] {
		return models.ActivityEntry{}, activity.ErrTaskGone
	}
	e.ID = "a" + string(rune('0'+len(m.entries)))
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memEntries) all() []models.ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActivityEntry(nil), m.entries...)
}

func TestHandle_Formats(t *testing.T) {
	due := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		topic   string
		payload eventbus.Payload
		want    string
	}{
		{
			name:    "created",
			topic:   eventbus.TopicTaskCreated,
			payload: eventbus.Payload{"content": "created the task"},
			want:    "created the task",
		},
		{
			name:    "status word-cased",
			topic:   eventbus.TopicTaskStatusChanged,
			payload: eventbus.Payload{"oldStatus": "to-do", "newStatus": "in-progress"},
			want:    "changed the status from To Do to In Progress",
		},
		{
			name:    "priority raw",
			topic:   eventbus.TopicTaskPriorityChanged,
			payload: eventbus.Payload{"oldPriority": "low", "newPriority": "urgent"},
			want:    "changed the priority from low to urgent",
		},
		{
			name:    "assignee",
			topic:   eventbus.TopicTaskAssigneeChanged,
			payload: eventbus.Payload{"newAssignee": "Ada"},
			want:    "assigned the task to Ada",
		},
		{
			name:    "unassigned",
			topic:   eventbus.TopicTaskUnassigned,
			payload: eventbus.Payload{},
			want:    "unassigned the task",
		},
		{
			name:    "due date time value",
			topic:   eventbus.TopicTaskDueDateChanged,
			payload: eventbus.Payload{"newDueDate": due},
			want:    "changed the due date to Mar 5",
		},
		{
			name:    "due date string",
			topic:   eventbus.TopicTaskDueDateChanged,
			payload: eventbus.Payload{"newDueDate": "2024-12-25"},
			want:    "changed the due date to Dec 25",
		},
		{
			name:    "title quoted",
			topic:   eventbus.TopicTaskTitleChanged,
			payload: eventbus.Payload{"newTitle": "Ship it"},
			want:    `changed the title to "Ship it"`,
		},
		{
			name:    "description",
			topic:   eventbus.TopicTaskDescriptionChanged,
			payload: eventbus.Payload{},
			want:    "updated the description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memEntries{}
			rec := activityrec.New(store, zap.NewNop())

			p := eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "x"}
			for k, v := range tt.payload {
				p[k] = v
			}
			if err := rec.Handle(context.Background(), tt.topic, p); err != nil {
				t.Fatalf("Handle: %v", err)
			}

			got := store.all()
			if len(got) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(got))
			}
			if got[0].Content != tt.want {
				t.Errorf("content: got %q, want %q", got[0].Content, tt.want)
			}
			if got[0].TaskID != "t1" || got[0].UserID != "u1" || got[0].Type != "x" {
				t.Errorf("entry identity: got %+v", got[0])
			}
		})
	}
}

func TestHandle_MissingFieldsDropSilently(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload eventbus.Payload
	}{
		{"no taskId", eventbus.TopicTaskCreated, eventbus.Payload{"userId": "u1", "type": "task", "content": "c"}},
		{"no userId", eventbus.TopicTaskUnassigned, eventbus.Payload{"taskId": "t1", "type": "unassigned"}},
		{"no type", eventbus.TopicTaskDescriptionChanged, eventbus.Payload{"taskId": "t1", "userId": "u1"}},
		{"empty taskId", eventbus.TopicTaskCreated, eventbus.Payload{"taskId": "", "userId": "u1", "type": "task", "content": "c"}},
		{"no content", eventbus.TopicTaskCreated, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "task"}},
		{"no newStatus", eventbus.TopicTaskStatusChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "s", "oldStatus": "to-do"}},
		{"no oldPriority", eventbus.TopicTaskPriorityChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "p", "newPriority": "high"}},
		{"no newAssignee", eventbus.TopicTaskAssigneeChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "a"}},
		{"no newTitle", eventbus.TopicTaskTitleChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "t"}},
		{"no newDueDate", eventbus.TopicTaskDueDateChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "d"}},
		{"bad newDueDate", eventbus.TopicTaskDueDateChanged, eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "d", "newDueDate": "soon"}},
		{"non-string userId", eventbus.TopicTaskCreated, eventbus.Payload{"taskId": "t1", "userId": 7, "type": "task", "content": "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memEntries{}
			rec := activityrec.New(store, zap.NewNop())

			if err := rec.Handle(context.Background(), tt.topic, tt.payload); err != nil {
				t.Fatalf("expected silent drop, got %v", err)
			}
			if n := len(store.all()); n != 0 {
				t.Errorf("expected 0 entries, got %d", n)
			}
		})
	}
}

func TestHandle_WriteErrorIsReturned(t *testing.T) {
	boom := errors.New("insert failed")
	rec := activityrec.New(&memEntries{err: boom}, zap.NewNop())

	err := rec.Handle(context.Background(), eventbus.TopicTaskUnassigned,
		eventbus.Payload{"taskId": "t1", "userId": "u1", "type": "unassigned"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}

func TestHandle_DeletedTaskDropsSilently(t *testing.T) {
	store := &memEntries{gone: map[string]bool{"t1": true}}
	rec := activityrec.New(store, zap.NewNop())

	err := rec.Handle(context.Background(), eventbus.TopicTaskStatusChanged, eventbus.Payload{
		"taskId": "t1", "userId": "u1", "type": "status_changed",
		"oldStatus": "to-do", "newStatus": "done",
	})
	if err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
	if n := len(store.all()); n != 0 {
		t.Errorf("expected 0 entries, got %d", n)
	}
}

func TestRegister_ThroughBus(t *testing.T) {
	store := &memEntries{}
	bus := eventbus.New(zap.NewNop(), eventbus.Options{})
	rec := activityrec.New(store, zap.NewNop())
	if err := rec.Register(bus); err != nil {
		t.Fatalf("Register: %v", err)
	}

	bus.Publish(eventbus.TopicTaskCreated, eventbus.Payload{
		"taskId":  "t1",
		"userId":  "u1",
		"type":    "task",
		"content": "created the task",
	})
	// Malformed event on another topic produces nothing.
	bus.Publish(eventbus.TopicTaskTitleChanged, eventbus.Payload{"taskId": "t1"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bus.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	got := store.all()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 entry, got %d", len(got))
	}
	want := models.ActivityEntry{ID: got[0].ID, TaskID: "t1", Type: "task", UserID: "u1", Content: "created the task"}
	if got[0] != want {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}

func TestRegister_OncePerTopic(t *testing.T) {
	sub := &countingSubscriber{counts: map[string]int{}}
	if err := activityrec.New(&memEntries{}, nil).Register(sub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, topic := range activityrec.Topics() {
		if sub.counts[topic] != 1 {
			t.Errorf("%s subscribed %d times", topic, sub.counts[topic])
		}
	}
	if len(sub.counts) != 8 {
		t.Errorf("expected 8 topics, got %d", len(sub.counts))
	}
}

type countingSubscriber struct{ counts map[string]int }

func (c *countingSubscriber) Subscribe(topic string, _ eventbus.Handler) error {
	c.counts[topic]++
	return nil
}
