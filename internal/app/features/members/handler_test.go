package members_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/features/members"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/rolemap"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	ctx    context.Context
	h      *members.Handler
	audits *audit.Store
	fx     *testutil.Fixtures
	ws     models.Workspace

	owner, member testutil.TestUser
}

func as(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

func newEnv(t *testing.T) *env {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	roles, err := rolemap.New([]string{"school.test"}, "member")
	if err != nil {
		t.Fatalf("rolemap.New failed: %v", err)
	}
	audits := audit.New(db)
	logger := auditlog.New(audits, zap.NewNop(), auditlog.Config{Members: auditlog.ToDB, Policy: auditlog.ToDB})
	h := members.NewHandler(db, invitationstore.New(db, 0), roles, testutil.NewAuditedGate(db, logger), logger, zap.NewNop())

	ws := fx.CreateWorkspace(ctx, "Acme")
	owner := fx.CreateUser(ctx, "Olga", "olga@acme.test")
	member := fx.CreateUser(ctx, "Mia", "mia@acme.test")
	fx.CreateMembership(ctx, ws.ID, owner.ID, "owner")
	fx.CreateMembership(ctx, ws.ID, member.ID, "member")

	return &env{ctx: ctx, h: h, audits: audits, fx: fx, ws: ws, owner: as(owner), member: as(member)}
}

func (e *env) call(handler http.HandlerFunc, param, value string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	req := testutil.NewAuthenticatedRequest("POST", "/", body, user)
	req = testutil.WithChiURLParam(req, param, value)
	rec := testutil.NewRecorder()
	handler(rec, req)
	return rec
}

// invite issues an invitation through the handler as the workspace owner.
func (e *env) invite(t *testing.T, email string) (models.Invitation, string) {
	t.Helper()
	rec := e.call(e.h.HandleInvite, "workspaceID", e.ws.ID, map[string]string{"email": email}, e.owner)
	rec.AssertStatus(t, http.StatusCreated)
	var out struct {
		Invitation models.Invitation `json:"invitation"`
		Token      string            `json:"token"`
	}
	rec.DecodeJSON(t, &out)
	return out.Invitation, out.Token
}

func (e *env) countEvents(t *testing.T, eventType string) int64 {
	t.Helper()
	n, err := e.audits.CountByFilter(e.ctx, audit.QueryFilter{EventType: eventType})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	return n
}

func TestAccept_TeacherDomainJoinsAsTeacher(t *testing.T) {
	e := newEnv(t)
	tom := as(e.fx.CreateUser(e.ctx, "Tom", "tom@School.test"))

	inv, token := e.invite(t, "TOM@school.test")

	rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, tom)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"teacher"`)

	role, ok, err := e.h.Memberships.RoleOf(e.ctx, tom.ID, e.ws.ID)
	if err != nil || !ok || role != authz.RoleTeacher {
		t.Errorf("RoleOf: got (%q, %v, %v), want teacher", role, ok, err)
	}
	if n := e.countEvents(t, audit.EventMemberJoined); n != 1 {
		t.Errorf("member_joined events: got %d, want 1", n)
	}

	// The invitation is spent.
	rec = e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, tom)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestAccept_OtherDomainJoinsWithDefaultRole(t *testing.T) {
	e := newEnv(t)
	amy := as(e.fx.CreateUser(e.ctx, "Amy", "amy@elsewhere.test"))

	inv, token := e.invite(t, amy.Email)
	rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, amy)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"joined":true`)

	role, _, _ := e.h.Memberships.RoleOf(e.ctx, amy.ID, e.ws.ID)
	if role != authz.RoleMember {
		t.Errorf("role: got %q, want member", role)
	}
}

func TestAccept_ManagerKeepsRole(t *testing.T) {
	e := newEnv(t)
	admin := as(e.fx.CreateUser(e.ctx, "Ann", "ann@school.test"))
	e.fx.CreateMembership(e.ctx, e.ws.ID, admin.ID, "admin")

	inv, token := e.invite(t, admin.Email)
	rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, admin)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"admin"`)

	role, _, _ := e.h.Memberships.RoleOf(e.ctx, admin.ID, e.ws.ID)
	if role != authz.RoleAdmin {
		t.Errorf("role: got %q, want admin", role)
	}
	if n := e.countEvents(t, audit.EventMemberRoleKept); n != 1 {
		t.Errorf("member_role_kept events: got %d, want 1", n)
	}
}

func TestAccept_Rejections(t *testing.T) {
	e := newEnv(t)
	amy := as(e.fx.CreateUser(e.ctx, "Amy", "amy@elsewhere.test"))
	inv, token := e.invite(t, amy.Email)

	// Wrong token looks like a missing invitation.
	rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": "nope"}, amy)
	rec.AssertStatus(t, http.StatusNotFound)

	rec = e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{}, amy)
	rec.AssertStatus(t, http.StatusBadRequest)

	// Someone else holding the token cannot use it.
	rec = e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, e.member)
	rec.AssertStatus(t, http.StatusForbidden)
	if n := e.countEvents(t, audit.EventPermissionDenied); n != 1 {
		t.Errorf("denials: got %d, want 1", n)
	}
}

func TestAccept_Throttled(t *testing.T) {
	e := newEnv(t)
	e.h.Attempts = ratelimit.New(2, time.Hour)
	amy := as(e.fx.CreateUser(e.ctx, "Amy", "amy@elsewhere.test"))
	inv, token := e.invite(t, amy.Email)

	for i := 0; i < 2; i++ {
		rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": "guess"}, amy)
		rec.AssertStatus(t, http.StatusNotFound)
	}

	// Even the right token is refused once the budget is spent.
	rec := e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, amy)
	rec.AssertStatus(t, http.StatusTooManyRequests)

	e.h.Attempts.Reset(amy.ID)
	rec = e.call(e.h.HandleAccept, "id", inv.ID, map[string]string{"token": token}, amy)
	rec.AssertStatus(t, http.StatusOK)
}

func TestInvite_ManagersOnly(t *testing.T) {
	e := newEnv(t)

	rec := e.call(e.h.HandleInvite, "workspaceID", e.ws.ID, map[string]string{"email": "x@acme.test"}, e.member)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.call(e.h.HandleInvite, "workspaceID", e.ws.ID, map[string]string{"email": "not an email"}, e.owner)
	rec.AssertStatus(t, http.StatusBadRequest)

	e.invite(t, "x@acme.test")
	rec = e.call(e.h.ServeInvitations, "workspaceID", e.ws.ID, nil, e.owner)
	rec.AssertStatus(t, http.StatusOK)
	var pending []models.Invitation
	rec.DecodeJSON(t, &pending)
	if len(pending) != 1 || pending[0].Email != "x@acme.test" {
		t.Errorf("pending: got %+v", pending)
	}
}

func TestServeList(t *testing.T) {
	e := newEnv(t)
	stranger := as(e.fx.CreateUser(e.ctx, "Sam", "sam@other.test"))

	rec := e.call(e.h.ServeList, "workspaceID", e.ws.ID, nil, e.member)
	rec.AssertStatus(t, http.StatusOK)
	var rows []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	rec.DecodeJSON(t, &rows)
	if len(rows) != 2 || rows[0].Name != "Olga" || rows[0].Role != "owner" {
		t.Errorf("members: got %+v", rows)
	}

	rec = e.call(e.h.ServeList, "workspaceID", e.ws.ID, nil, stranger)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.call(e.h.ServeList, "workspaceID", "no-such-workspace", nil, e.member)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeList_SearchByName(t *testing.T) {
	e := newEnv(t)
	mila := e.fx.CreateUser(e.ctx, "Míla", "mila@acme.test")
	e.fx.CreateMembership(e.ctx, e.ws.ID, mila.ID, "teacher")

	req := testutil.NewAuthenticatedRequest("GET", "/?q=mi", nil, e.owner)
	req = testutil.WithChiURLParam(req, "workspaceID", e.ws.ID)
	rec := testutil.NewRecorder()
	e.h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var rows []struct {
		Name string `json:"name"`
	}
	rec.DecodeJSON(t, &rows)
	if len(rows) != 2 || rows[0].Name != "Mia" || rows[1].Name != "Míla" {
		t.Errorf("search results: got %+v", rows)
	}
}
