// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	ToAll = "all" // MongoDB + zap
	ToDB  = "db"  // MongoDB only
	ToLog = "log" // zap only
	Off   = "off"
)

// Config holds per-category audit destinations.
type Config struct {
	// Policy controls permission-denial events.
	Policy string
	// Comments controls comment edit and delete events.
	Comments string
	// Members controls membership events (invitation accepts).
	Members string
}

// ValidSetting reports whether s is a recognised destination.
func ValidSetting(s string) bool {
	switch s {
	case ToAll, ToDB, ToLog, Off:
		return true
	}
	return false
}

// Logger writes audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.WorkspaceID != "" {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryPolicy:
		s = l.config.Policy
	case audit.CategoryComments:
		s = l.config.Comments
	case audit.CategoryMembers:
		s = l.config.Members
	}
	if s == "" {
		return ToAll
	}
	return s
}

// Log records an event according to its category's setting.
// A nil Logger is a no-op. Store failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == ToAll || setting == ToLog {
		l.logToZap(event)
	}
	if (setting == ToAll || setting == ToDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// PermissionDenied records a refused action. subjectID is the task or
// project the action targeted; workspaceID may be empty when it could not
// be resolved.
func (l *Logger) PermissionDenied(ctx context.Context, r *http.Request, actorID, workspaceID, action, subjectID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryPolicy,
		EventType:     audit.EventPermissionDenied,
		WorkspaceID:   workspaceID,
		ActorID:       actorID,
		SubjectID:     subjectID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "permission denied",
		Details: map[string]string{
			"action": action,
		},
	})
}

// CommentUpdated records an author editing their comment.
func (l *Logger) CommentUpdated(ctx context.Context, r *http.Request, actorID, taskID, commentID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryComments,
		EventType: audit.EventCommentUpdated,
		ActorID:   actorID,
		SubjectID: commentID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details: map[string]string{
			"task_id": taskID,
		},
	})
}

// CommentDeleted records an author deleting their comment.
func (l *Logger) CommentDeleted(ctx context.Context, r *http.Request, actorID, taskID, commentID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryComments,
		EventType: audit.EventCommentDeleted,
		ActorID:   actorID,
		SubjectID: commentID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details: map[string]string{
			"task_id": taskID,
		},
	})
}

// MemberJoined records a user joining a workspace with the given role.
func (l *Logger) MemberJoined(ctx context.Context, r *http.Request, userID, workspaceID, role string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryMembers,
		EventType:   audit.EventMemberJoined,
		WorkspaceID: workspaceID,
		ActorID:     userID,
		SubjectID:   userID,
		IP:          getClientIP(r),
		UserAgent:   userAgent(r),
		Success:     true,
		Details: map[string]string{
			"role": role,
		},
	})
}

// MemberRoleKept records an accept that left an existing manager role in place.
func (l *Logger) MemberRoleKept(ctx context.Context, r *http.Request, userID, workspaceID, kept, derived string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryMembers,
		EventType:   audit.EventMemberRoleKept,
		WorkspaceID: workspaceID,
		ActorID:     userID,
		SubjectID:   userID,
		IP:          getClientIP(r),
		UserAgent:   userAgent(r),
		Success:     true,
		Details: map[string]string{
			"kept_role":    kept,
			"derived_role": derived,
		},
	})
}
