// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	"github.com/dalemusser/taskhub/internal/app/system/activityrec"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/rolemap"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the schema is in place and
// before the HTTP handler is built. It registers the activity recorder on
// a new event bus and seals it, so no subscription can be added once
// requests are served. It also starts the invitation sweep.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
		Batch:  appCfg.TimeoutBatch,
	})

	svc, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.Services = *svc
	svc.Sweep.Start()
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Services, error) {
	db := deps.TaskHubMongoDatabase

	roles, err := rolemap.New(appCfg.TeacherEmailDomains, appCfg.DefaultMemberRole)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(logger.Named("events"), eventbus.Options{
		HandlerTimeout: appCfg.EventHandlerTimeout,
		MaxInFlight:    appCfg.EventMaxInFlight,
	})
	if err := activityrec.New(activity.New(db), logger.Named("activity")).Register(bus); err != nil {
		return nil, fmt.Errorf("register activity recorder: %w", err)
	}
	bus.Seal()

	auditLog := auditlog.New(audit.New(db), logger.Named("audit"), auditlog.Config{
		Policy:   appCfg.AuditLogPolicy,
		Comments: appCfg.AuditLogComments,
		Members:  appCfg.AuditLogMembers,
	})

	sweep := workers.NewInvitationSweep(
		invitationstore.New(db, appCfg.InvitationExpiry),
		logger.Named("invitations"),
		appCfg.InvitationSweep,
	)

	logger.Info("services ready",
		zap.Strings("topics", activityrec.Topics()),
		zap.Int("teacher_domains", len(appCfg.TeacherEmailDomains)),
		zap.String("default_member_role", appCfg.DefaultMemberRole))

	return &Services{Bus: bus, Audit: auditLog, Roles: roles, Sweep: sweep}, nil
}
