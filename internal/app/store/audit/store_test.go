package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	err := store.Log(ctx, audit.Event{
		Category:    audit.CategoryPolicy,
		EventType:   audit.EventPermissionDenied,
		WorkspaceID: "ws1",
		ActorID:     "u1",
		SubjectID:   "t1",
		IP:          "192.168.1.1",
		UserAgent:   "TestBrowser/1.0",
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByActor(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if events[0].SubjectID != "t1" {
		t.Errorf("subject: got %q, want %q", events[0].SubjectID, "t1")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().UTC().Add(-2 * time.Hour)
	events := []audit.Event{
		{Category: audit.CategoryPolicy, EventType: audit.EventPermissionDenied, WorkspaceID: "ws1", ActorID: "u1", Timestamp: old},
		{Category: audit.CategoryPolicy, EventType: audit.EventPermissionDenied, WorkspaceID: "ws1", ActorID: "u2"},
		{Category: audit.CategoryComments, EventType: audit.EventCommentDeleted, WorkspaceID: "ws1", ActorID: "u1", Success: true},
		{Category: audit.CategoryPolicy, EventType: audit.EventPermissionDenied, WorkspaceID: "ws2", ActorID: "u1"},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int64
	}{
		{"all", audit.QueryFilter{}, 4},
		{"workspace", audit.QueryFilter{WorkspaceID: "ws1"}, 3},
		{"actor", audit.QueryFilter{ActorID: "u1"}, 3},
		{"category", audit.QueryFilter{Category: audit.CategoryComments}, 1},
		{"event type in workspace", audit.QueryFilter{WorkspaceID: "ws1", EventType: audit.EventPermissionDenied}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.CountByFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("got %d, want %d", n, tt.want)
			}
		})
	}

	recent, err := store.GetDenials(ctx, "ws1", time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetDenials failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ActorID != "u2" {
		t.Errorf("GetDenials: got %+v", recent)
	}
}

func TestStore_Query_NewestFirstWithPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryPolicy,
			EventType: audit.EventPermissionDenied,
			SubjectID: string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	page, err := store.Query(ctx, audit.QueryFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 2 || page[0].SubjectID != "b" || page[1].SubjectID != "a" {
		t.Errorf("page: got %+v", page)
	}
}
