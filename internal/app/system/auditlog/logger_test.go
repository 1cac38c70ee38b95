package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.PermissionDenied(ctx, req, "u1", "ws1", "modify", "t1")
	logger.CommentDeleted(ctx, req, "u1", "t1", "c1")
}

func TestLogger_LogOnly_NoStore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Policy: auditlog.ToLog})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("PUT", "/tasks/t1/status", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	logger.PermissionDenied(ctx, req, "u1", "ws1", "modify", "t1")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Errorf("level: got %v, want warn", e.Level)
	}
	fields := e.ContextMap()
	if fields["event_type"] != audit.EventPermissionDenied || fields["ip"] != "10.0.0.9" || fields["detail_action"] != "modify" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestLogger_Settings(t *testing.T) {
	tests := []struct {
		name    string
		cfg     auditlog.Config
		wantDB  int64
		wantZap int
	}{
		{"off", auditlog.Config{Policy: auditlog.Off, Comments: auditlog.Off}, 0, 0},
		{"db", auditlog.Config{Policy: auditlog.ToDB, Comments: auditlog.ToDB}, 2, 0},
		{"log", auditlog.Config{Policy: auditlog.ToLog, Comments: auditlog.ToLog}, 0, 2},
		{"all", auditlog.Config{Policy: auditlog.ToAll, Comments: auditlog.ToAll}, 2, 2},
		{"mixed", auditlog.Config{Policy: auditlog.ToDB, Comments: auditlog.Off}, 1, 0},
		{"unset defaults to all", auditlog.Config{}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			logger := auditlog.New(store, zap.New(core), tt.cfg)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			req := httptest.NewRequest("DELETE", "/", nil)
			logger.PermissionDenied(ctx, req, "u1", "ws1", "modify", "t1")
			logger.CommentDeleted(ctx, req, "u1", "t1", "c1")

			n, err := store.CountByFilter(ctx, audit.QueryFilter{ActorID: "u1"})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.wantDB {
				t.Errorf("db events: got %d, want %d", n, tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantZap {
				t.Errorf("zap events: got %d, want %d", got, tt.wantZap)
			}
		})
	}
}

func TestLogger_MemberEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Members: auditlog.ToDB})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("POST", "/", nil)
	logger.MemberJoined(ctx, req, "u1", "ws1", "teacher")
	logger.MemberRoleKept(ctx, req, "u2", "ws1", "admin", "teacher")

	events, err := store.Query(ctx, audit.QueryFilter{WorkspaceID: "ws1", Category: audit.CategoryMembers})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		switch e.EventType {
		case audit.EventMemberJoined:
			if e.Details["role"] != "teacher" {
				t.Errorf("joined role: got %q", e.Details["role"])
			}
		case audit.EventMemberRoleKept:
			if e.Details["kept_role"] != "admin" {
				t.Errorf("kept role: got %q", e.Details["kept_role"])
			}
		default:
			t.Errorf("unexpected event type %q", e.EventType)
		}
	}
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "ALL", "both"} {
		if auditlog.ValidSetting(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
