// Package activityrec turns task events into human-readable activity entries.
//
// The recorder subscribes once per task topic. Each handler validates the
// payload, formats a sentence and writes a single entry. A payload missing
// a required field, or naming a task that no longer exists, is dropped
// without an entry and without an error.
package activityrec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntryWriter persists activity entries. Record returns
// activity.ErrTaskGone, and writes nothing, when the task no longer exists.
type EntryWriter interface {
	Record(ctx context.Context, e models.ActivityEntry) (models.ActivityEntry, error)
}

// Subscriber is the part of the event bus the recorder registers with.
type Subscriber interface {
	Subscribe(topic string, h eventbus.Handler) error
}

// Recorder writes one activity entry per well-formed task event.
type Recorder struct {
	entries EntryWriter
	log     *zap.Logger
}

// New creates a Recorder.
func New(entries EntryWriter, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{entries: entries, log: logger}
}

// formatter builds the entry content from the already-validated fields.
type formatter func(f fields) string

type rule struct {
	required []string
	format   formatter
}

type fields map[string]string

// base fields every task event carries.
var base = []string{"taskId", "userId", "type"}

var rules = map[string]rule{
	eventbus.TopicTaskCreated: {
		required: []string{"content"},
		format:   func(f fields) string { return f["content"] },
	},
	eventbus.TopicTaskStatusChanged: {
		required: []string{"oldStatus", "newStatus"},
		format: func(f fields) string {
			return fmt.Sprintf("changed the status from %s to %s",
				wordCase(f["oldStatus"]), wordCase(f["newStatus"]))
		},
	},
	eventbus.TopicTaskPriorityChanged: {
		required: []string{"oldPriority", "newPriority"},
		format: func(f fields) string {
			return fmt.Sprintf("changed the priority from %s to %s", f["oldPriority"], f["newPriority"])
		},
	},
	eventbus.TopicTaskAssigneeChanged: {
		required: []string{"newAssignee"},
		format: func(f fields) string {
			return "assigned the task to " + f["newAssignee"]
		},
	},
	eventbus.TopicTaskUnassigned: {
		format: func(fields) string { return "unassigned the task" },
	},
	eventbus.TopicTaskDueDateChanged: {
		required: []string{"newDueDate"},
		format: func(f fields) string {
			return "changed the due date to " + f["newDueDate"]
		},
	},
	eventbus.TopicTaskTitleChanged: {
		required: []string{"newTitle"},
		format: func(f fields) string {
			return fmt.Sprintf("changed the title to %q", f["newTitle"])
		},
	},
	eventbus.TopicTaskDescriptionChanged: {
		format: func(fields) string { return "updated the description" },
	},
}

// Topics lists every topic the recorder handles.
func Topics() []string {
	return []string{
		eventbus.TopicTaskCreated,
		eventbus.TopicTaskStatusChanged,
		eventbus.TopicTaskPriorityChanged,
		eventbus.TopicTaskAssigneeChanged,
		eventbus.TopicTaskUnassigned,
		eventbus.TopicTaskDueDateChanged,
		eventbus.TopicTaskTitleChanged,
		eventbus.TopicTaskDescriptionChanged,
	}
}

// Register subscribes the recorder to every task topic exactly once.
func (r *Recorder) Register(bus Subscriber) error {
	for _, topic := range Topics() {
		if err := bus.Subscribe(topic, r.handlerFor(topic)); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

func (r *Recorder) handlerFor(topic string) eventbus.Handler {
	return func(ctx context.Context, p eventbus.Payload) error {
		return r.Handle(ctx, topic, p)
	}
}

// Handle records the entry for one event. It returns an error only when
// the write itself fails.
func (r *Recorder) Handle(ctx context.Context, topic string, p eventbus.Payload) error {
	rl, ok := rules[topic]
	if !ok {
		r.log.Debug("activity: unhandled topic", zap.String("topic", topic))
		return nil
	}

	f, missing := extract(p, append(append([]string{}, base...), rl.required...))
	if missing != "" {
		r.log.Debug("activity: dropping malformed event",
			zap.String("topic", topic),
			zap.String("missing_field", missing))
		return nil
	}

	if topic == eventbus.TopicTaskDueDateChanged {
		due, ok := p.Time("newDueDate")
		if !ok {
			r.log.Debug("activity: dropping event with unparseable due date",
				zap.String("topic", topic))
			return nil
		}
		f["newDueDate"] = formatDueDate(due)
	}

	entry := models.ActivityEntry{
		TaskID:  f["taskId"],
		Type:    f["type"],
		UserID:  f["userId"],
		Content: rl.format(f),
	}
	_, err := r.entries.Record(ctx, entry)
	if errors.Is(err, activity.ErrTaskGone) {
		r.log.Debug("activity: dropping event for deleted task",
			zap.String("topic", topic),
			zap.String("task_id", entry.TaskID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("record %s for task %s: %w", topic, entry.TaskID, err)
	}
	return nil
}

// extract returns the named string fields, or the first missing name.
// newDueDate may be a time value, so it is only checked for presence.
func extract(p eventbus.Payload, names []string) (fields, string) {
	f := make(fields, len(names))
	for _, n := range names {
		if n == "newDueDate" {
			if _, ok := p[n]; !ok {
				return nil, n
			}
			continue
		}
		v, ok := p.String(n)
		if !ok {
			return nil, n
		}
		f[n] = v
	}
	return f, ""
}

// wordCase renders a stored status like "in-progress" as "In Progress".
// A Caser is stateful, so each call gets its own.
func wordCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(s)
}

func formatDueDate(t time.Time) string {
	return t.UTC().Format("Jan 2")
}
