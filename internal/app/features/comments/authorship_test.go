package comments_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/features/comments"
	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// memEntries is an in-memory EntryStore that counts writes.
type memEntries struct {
	byID   map[string]models.ActivityEntry
	writes int
}

func (m *memEntries) Record(_ context.Context, e models.ActivityEntry) (models.ActivityEntry, error) {
	m.byID[e.ID] = e
	m.writes++
	return e, nil
}

func (m *memEntries) Get(_ context.Context, id string) (models.ActivityEntry, error) {
	e, ok := m.byID[id]
	if !ok {
		return models.ActivityEntry{}, activity.ErrNotFound
	}
	return e, nil
}

func (m *memEntries) ListByTask(_ context.Context, taskID string) ([]models.ActivityEntry, error) {
	var out []models.ActivityEntry
	for _, e := range m.byID {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntries) UpdateComment(_ context.Context, id, authorID, content string) (models.ActivityEntry, error) {
	e, ok := m.byID[id]
	if !ok || e.UserID != authorID || !e.IsComment() {
		return models.ActivityEntry{}, activity.ErrNotFound
	}
	e.Content = content
	m.byID[id] = e
	m.writes++
	return e, nil
}

func (m *memEntries) DeleteComment(_ context.Context, id, authorID string) error {
	e, ok := m.byID[id]
	if !ok || e.UserID != authorID || !e.IsComment() {
		return activity.ErrNotFound
	}
	delete(m.byID, id)
	m.writes++
	return nil
}

func TestCommentWrites_OnlyTheAuthor(t *testing.T) {
	store := &memEntries{byID: map[string]models.ActivityEntry{
		"c1": {ID: "c1", TaskID: "t1", Type: models.ActivityTypeComment, UserID: "author", Content: "<p>mine</p>"},
	}}
	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Policy: auditlog.ToLog, Comments: auditlog.ToLog})
	h := &comments.Handler{
		Activity: store,
		Gate:     gates.New(nil, audit, zap.NewNop()),
		Audit:    audit,
		Log:      zap.NewNop(),
	}

	call := func(handler http.HandlerFunc, method string, body any, uid string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(method, "/", body, testutil.TestUser{ID: uid})
		req = testutil.WithChiURLParam(req, "id", "c1")
		rec := testutil.NewRecorder()
		handler(rec, req)
		return rec
	}

	for _, uid := range []string{"owner", "admin", "teacher", "member"} {
		rec := call(h.HandleUpdate, "PUT", map[string]string{"content": "edited"}, uid)
		rec.AssertStatus(t, http.StatusForbidden)

		rec = call(h.HandleDelete, "DELETE", nil, uid)
		rec.AssertStatus(t, http.StatusForbidden)
	}
	if store.writes != 0 {
		t.Fatalf("non-author writes reached the store: %d", store.writes)
	}
	if n := logs.FilterMessage("audit event").Len(); n != 8 {
		t.Errorf("denials logged: got %d, want 8", n)
	}

	rec := call(h.HandleUpdate, "PUT", map[string]string{"content": "edited"}, "author")
	rec.AssertStatus(t, http.StatusOK)
	if got := store.byID["c1"].Content; got != "<p>edited</p>" {
		t.Errorf("content: got %q", got)
	}

	rec = call(h.HandleDelete, "DELETE", nil, "author")
	rec.AssertStatus(t, http.StatusNoContent)
	if _, err := store.Get(context.Background(), "c1"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("comment still present: %v", err)
	}
}
