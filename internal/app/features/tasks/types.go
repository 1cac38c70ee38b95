// internal/app/features/tasks/types.go
package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	projectstore "github.com/dalemusser/taskhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
)

type createRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssigneeID  string  `json:"assigneeId"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

type assigneeRequest struct {
	// AssigneeID is the user to assign; empty unassigns.
	AssigneeID string `json:"assigneeId"`
}

type dueDateRequest struct {
	// DueDate is RFC 3339 or YYYY-MM-DD; null or empty clears it.
	DueDate *string `json:"dueDate"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

// updateRequest is a partial update; absent fields are left alone.
type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	// DueDate "" clears the date.
	DueDate    *string `json:"dueDate"`
	AssigneeID *string `json:"assigneeId"`
	ProjectID  *string `json:"projectId"`
	Position   *int    `json:"position"`
}

type projectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// parseDueDate returns nil for an absent or blank value.
func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apiresp.BadRequest("dueDate %q is not a date", v)
}

// requireField trims v and reports a 400 when it is empty.
func requireField(name, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apiresp.BadRequest("%s is required", name)
	}
	return v, nil
}

// storeErr maps store sentinels onto the statuses apiresp understands.
func storeErr(err error) error {
	switch {
	case errors.Is(err, taskstore.ErrNotFound), errors.Is(err, projectstore.ErrNotFound):
		return fmt.Errorf("%v: %w", err, authz.ErrNotFound)
	case errors.Is(err, taskstore.ErrTitleMissing):
		return apiresp.BadRequest("title is required")
	}
	return err
}
