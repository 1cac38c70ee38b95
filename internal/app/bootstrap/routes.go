// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	commentsfeature "github.com/dalemusser/taskhub/internal/app/features/comments"
	healthfeature "github.com/dalemusser/taskhub/internal/app/features/health"
	labelsfeature "github.com/dalemusser/taskhub/internal/app/features/labels"
	membersfeature "github.com/dalemusser/taskhub/internal/app/features/members"
	tasksfeature "github.com/dalemusser/taskhub/internal/app/features/tasks"
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	"github.com/dalemusser/taskhub/internal/app/store/queries/policyqueries"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for TaskHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed, so deps.Services is populated. Every feature
// router shares one policy engine and one Gate; denials flow into the
// audit logger built in Startup.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.TaskHubMongoDatabase
	svc := deps.Services

	engine := taskpolicy.New(membershipstore.New(db), policyqueries.New(db), logger.Named("policy"))
	gate := gates.New(engine, svc.Audit, logger)

	r := chi.NewRouter()

	// Loads the SessionUser into context when the cookie is valid.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.TaskHubMongoClient, svc.Bus, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Tasks
	tasksHandler := tasksfeature.NewHandler(db, gate, svc.Bus, logger)
	tasksHandler.Members = engine
	r.Mount("/projects/{projectID}/tasks", tasksfeature.ProjectRoutes(tasksHandler, sessionMgr))
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	// Comments and the activity feed. These mount below /tasks/{taskID}/
	// on fixed segments so the /tasks router still sees every other path.
	commentsHandler := commentsfeature.NewHandler(db, gate, svc.Audit, logger)
	r.Mount("/tasks/{taskID}/activity", commentsfeature.ActivityRoutes(commentsHandler, sessionMgr))
	r.Mount("/tasks/{taskID}/comments", commentsfeature.TaskRoutes(commentsHandler, sessionMgr))
	r.Mount("/comments", commentsfeature.Routes(commentsHandler, sessionMgr))

	// Labels
	labelsHandler := labelsfeature.NewHandler(db, gate, logger)
	r.Mount("/tasks/{taskID}/labels", labelsfeature.TaskRoutes(labelsHandler, sessionMgr))
	r.Mount("/workspaces/{workspaceID}/labels", labelsfeature.WorkspaceRoutes(labelsHandler, sessionMgr))
	r.Mount("/labels", labelsfeature.Routes(labelsHandler, sessionMgr))

	// Members and invitations
	invitations := invitationstore.New(db, appCfg.InvitationExpiry)
	membersHandler := membersfeature.NewHandler(db, invitations, svc.Roles, gate, svc.Audit, logger)
	membersHandler.Attempts = ratelimit.New(appCfg.AcceptLimit, appCfg.AcceptWindow)
	r.Mount("/workspaces/{workspaceID}/members", membersfeature.MemberRoutes(membersHandler, sessionMgr))
	r.Mount("/workspaces/{workspaceID}/invitations", membersfeature.WorkspaceInvitationRoutes(membersHandler, sessionMgr))
	r.Mount("/invitations", membersfeature.InvitationRoutes(membersHandler, sessionMgr))

	return r, nil
}
