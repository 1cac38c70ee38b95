package gates_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubPolicy struct {
	err       error
	calls     int
	workspace string
}

func (s *stubPolicy) Authorize(_ context.Context, _ string, _ taskpolicy.Action, _ string) error {
	s.calls++
	return s.err
}

func (s *stubPolicy) AuthorizeWorkspace(_ context.Context, _ string, _ taskpolicy.Action, workspaceID string) error {
	s.calls++
	s.workspace = workspaceID
	return s.err
}

func withTestUser(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: "u1", Name: "Test User", Email: "t@example.com"})
}

func newGate(err error) (*gates.Gate, *stubPolicy, *observer.ObservedLogs) {
	p := &stubPolicy{err: err}
	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Policy: auditlog.ToLog})
	return gates.New(p, audit, zap.NewNop()), p, logs
}

func TestRequire_Anonymous(t *testing.T) {
	g, p, _ := newGate(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/tasks/t1/status", nil)

	if _, ok := g.Require(rec, req, taskpolicy.ActionModify, "t1"); ok {
		t.Fatal("expected anonymous caller to be refused")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
	if p.calls != 0 {
		t.Error("policy should not be consulted without a user")
	}
}

func TestRequire_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantOK     bool
		wantStatus int
		wantAudit  int
	}{
		{"allowed", nil, true, http.StatusOK, 0},
		{"denied", &taskpolicy.DeniedError{Action: taskpolicy.ActionModify, ResourceID: "t1", WorkspaceID: "ws1"}, false, http.StatusForbidden, 1},
		{"not found", fmt.Errorf("task t1: %w", authz.ErrNotFound), false, http.StatusNotFound, 0},
		{"store failure", fmt.Errorf("role lookup: boom"), false, http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, logs := newGate(tt.err)
			rec := httptest.NewRecorder()
			req := withTestUser(httptest.NewRequest("PUT", "/tasks/t1/status", nil))

			uid, ok := g.Require(rec, req, taskpolicy.ActionModify, "t1")
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && uid != "u1" {
				t.Errorf("uid: got %q, want %q", uid, "u1")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantAudit {
				t.Errorf("audit events: got %d, want %d", got, tt.wantAudit)
			}
		})
	}
}

func TestFail_DenialAuditFields(t *testing.T) {
	g, _, logs := newGate(nil)
	rec := httptest.NewRecorder()
	req := withTestUser(httptest.NewRequest("POST", "/", nil))

	g.Fail(rec, req, &taskpolicy.DeniedError{Action: taskpolicy.ActionComment, ResourceID: "t9", WorkspaceID: "ws3"})

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	f := entries[0].ContextMap()
	if f["actor_id"] != "u1" || f["workspace_id"] != "ws3" || f["subject_id"] != "t9" || f["detail_action"] != "comment" {
		t.Errorf("unexpected fields: %v", f)
	}
}

func TestRequireWorkspace(t *testing.T) {
	g, p, _ := newGate(nil)
	rec := httptest.NewRecorder()
	req := withTestUser(httptest.NewRequest("GET", "/workspaces/ws1/members", nil))

	uid, ok := g.RequireWorkspace(rec, req, taskpolicy.ActionRead, "ws1")
	if !ok || uid != "u1" {
		t.Fatalf("RequireWorkspace = %q, %v", uid, ok)
	}
	if p.workspace != "ws1" {
		t.Errorf("policy saw workspace %q", p.workspace)
	}

	denied := &taskpolicy.DeniedError{Action: taskpolicy.ActionManageMembers, ResourceID: "ws1", WorkspaceID: "ws1"}
	g, _, logs := newGate(denied)
	rec = httptest.NewRecorder()
	if _, ok := g.RequireWorkspace(rec, req, taskpolicy.ActionManageMembers, "ws1"); ok {
		t.Fatal("expected refusal")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
	if logs.FilterMessage("audit event").Len() != 1 {
		t.Error("denial should be audited")
	}

	g, p, _ = newGate(nil)
	rec = httptest.NewRecorder()
	if _, ok := g.RequireWorkspace(rec, httptest.NewRequest("GET", "/", nil), taskpolicy.ActionRead, "ws1"); ok {
		t.Fatal("expected anonymous caller to be refused")
	}
	if rec.Code != http.StatusUnauthorized || p.calls != 0 {
		t.Errorf("anonymous: status %d, policy calls %d", rec.Code, p.calls)
	}
}
