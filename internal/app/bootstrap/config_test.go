package bootstrap

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "taskhub",
		AuditLogPolicy:      "all",
		AuditLogComments:    "db",
		AuditLogMembers:     "off",
		EventHandlerTimeout: 10 * time.Second,
		EventDrainTimeout:   15 * time.Second,
		EventMaxInFlight:    64,
		DefaultMemberRole:   "member",
		InvitationExpiry:    7 * 24 * time.Hour,
		InvitationSweep:     time.Hour,
		AcceptLimit:         10,
		AcceptWindow:        15 * time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"teacher default", func(c *AppConfig) { c.DefaultMemberRole = "teacher" }, ""},
		{"bad uri", func(c *AppConfig) { c.MongoURI = "postgres://x" }, "MongoDB URI"},
		{"bad audit setting", func(c *AppConfig) { c.AuditLogComments = "sometimes" }, "audit_log_comments"},
		{"zero drain", func(c *AppConfig) { c.EventDrainTimeout = 0 }, "event_drain_timeout"},
		{"zero inflight", func(c *AppConfig) { c.EventMaxInFlight = 0 }, "event_max_inflight"},
		{"zero accept limit", func(c *AppConfig) { c.AcceptLimit = 0 }, "invitation_accept_limit"},
		{"zero sweep", func(c *AppConfig) { c.InvitationSweep = 0 }, "invitation_sweep_interval"},
		{"owner default", func(c *AppConfig) { c.DefaultMemberRole = "owner" }, "default_member_role"},
		{"unknown default", func(c *AppConfig) { c.DefaultMemberRole = "guest" }, "default_member_role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" school.test, ,Academy.Example ,")
	if len(got) != 2 || got[0] != "school.test" || got[1] != "Academy.Example" {
		t.Errorf("splitList = %q", got)
	}
	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList(\"\") = %q, want empty", got)
	}
}
