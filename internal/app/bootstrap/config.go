// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TaskHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TASKHUB_MONGO_URI, TASKHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "taskhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Audit logging settings
	{Name: "audit_log_policy", Default: "all", Desc: "Permission denial logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_comments", Default: "all", Desc: "Comment edit/delete logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_members", Default: "all", Desc: "Membership event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Event bus
	{Name: "event_handler_timeout", Default: "10s", Desc: "Deadline for each activity recorder invocation"},
	{Name: "event_drain_timeout", Default: "15s", Desc: "How long shutdown waits for in-flight event handlers"},
	{Name: "event_max_inflight", Default: 64, Desc: "Maximum concurrently running event handlers"},

	// Invitations
	{Name: "teacher_email_domains", Default: "", Desc: "Comma-separated email domains whose users join as teacher"},
	{Name: "default_member_role", Default: "member", Desc: "Role for invitees not on a teacher domain"},
	{Name: "invitation_expiry", Default: "168h", Desc: "How long an invitation can be accepted"},
	{Name: "invitation_sweep_interval", Default: "1h", Desc: "How often expired invitations are purged"},
	{Name: "invitation_accept_limit", Default: 10, Desc: "Invitation accept attempts allowed per user per window"},
	{Name: "invitation_accept_window", Default: "15m", Desc: "Window for invitation_accept_limit"},

	// Request timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Single-document reads and updates"},
	{Name: "timeout_medium", Default: "10s", Desc: "Lists, creates and invitation accepts"},
	{Name: "timeout_long", Default: "30s", Desc: "Cascading deletes"},
	{Name: "timeout_batch", Default: "60s", Desc: "Task import"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env > files > defaults (TASKHUB_* for app keys).
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		AuditLogPolicy:   appValues.String("audit_log_policy"),
		AuditLogComments: appValues.String("audit_log_comments"),
		AuditLogMembers:  appValues.String("audit_log_members"),

		EventHandlerTimeout: appValues.Duration("event_handler_timeout", 10*time.Second),
		EventDrainTimeout:   appValues.Duration("event_drain_timeout", 15*time.Second),
		EventMaxInFlight:    int64(appValues.Int("event_max_inflight")),

		TeacherEmailDomains: splitList(appValues.String("teacher_email_domains")),
		DefaultMemberRole:   appValues.String("default_member_role"),
		InvitationExpiry:    appValues.Duration("invitation_expiry", 7*24*time.Hour),
		InvitationSweep:     appValues.Duration("invitation_sweep_interval", time.Hour),
		AcceptLimit:         appValues.Int("invitation_accept_limit"),
		AcceptWindow:        appValues.Duration("invitation_accept_window", 15*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
		TimeoutBatch:  appValues.Duration("timeout_batch", 0),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation before anything
// connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	for key, v := range map[string]string{
		"audit_log_policy":   appCfg.AuditLogPolicy,
		"audit_log_comments": appCfg.AuditLogComments,
		"audit_log_members":  appCfg.AuditLogMembers,
	} {
		if !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}

	for key, d := range map[string]time.Duration{
		"event_handler_timeout":     appCfg.EventHandlerTimeout,
		"event_drain_timeout":       appCfg.EventDrainTimeout,
		"invitation_expiry":         appCfg.InvitationExpiry,
		"invitation_sweep_interval": appCfg.InvitationSweep,
		"invitation_accept_window":  appCfg.AcceptWindow,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive (got %s)", key, d)
		}
	}
	if appCfg.EventMaxInFlight <= 0 {
		return fmt.Errorf("event_max_inflight must be positive (got %d)", appCfg.EventMaxInFlight)
	}
	if appCfg.AcceptLimit <= 0 {
		return fmt.Errorf("invitation_accept_limit must be positive (got %d)", appCfg.AcceptLimit)
	}

	role, ok := authz.ParseRole(appCfg.DefaultMemberRole)
	if !ok || role == authz.RoleOwner {
		return fmt.Errorf("default_member_role %q must be admin, member or teacher", appCfg.DefaultMemberRole)
	}
	return nil
}
