package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Anonymous requests reaching a feature router are rejected with 401 by
// RequireSignedIn; paths no router owns give 404. Together they show which
// mount a path landed on.
func TestBuildHandler_Mounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	appCfg := validAppConfig()
	appCfg.SessionKey = "test-session-key-0123456789abcdef0123"
	deps := DBDeps{TaskHubMongoClient: db.Client(), TaskHubMongoDatabase: db}

	svc, err := buildServices(appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	deps.Services = svc
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Bus.Drain(ctx)
	})

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/projects/p1/tasks", http.StatusUnauthorized},
		{http.MethodPut, "/tasks/t1/status", http.StatusUnauthorized},
		{http.MethodGet, "/tasks/t1", http.StatusUnauthorized},
		{http.MethodPut, "/tasks/t1", http.StatusUnauthorized},
		{http.MethodGet, "/tasks/t1/activity", http.StatusUnauthorized},
		{http.MethodPost, "/tasks/t1/comments", http.StatusUnauthorized},
		{http.MethodGet, "/tasks/t1/labels", http.StatusUnauthorized},
		{http.MethodPut, "/comments/c1", http.StatusUnauthorized},
		{http.MethodPost, "/labels", http.StatusUnauthorized},
		{http.MethodGet, "/labels/l1", http.StatusUnauthorized},
		{http.MethodPut, "/labels/l1", http.StatusUnauthorized},
		{http.MethodGet, "/workspaces/w1/labels", http.StatusUnauthorized},
		{http.MethodGet, "/workspaces/w1/members", http.StatusUnauthorized},
		{http.MethodPost, "/workspaces/w1/invitations", http.StatusUnauthorized},
		{http.MethodPost, "/invitations/i1/accept", http.StatusUnauthorized},
		{http.MethodGet, "/organizations", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
