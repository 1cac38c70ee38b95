// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging, CORS). Everything TaskHub itself needs lives here and is
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration. Sessions are issued elsewhere; TaskHub
	// only reads them.
	SessionKey    string
	SessionName   string
	SessionDomain string

	// Audit destinations per category: all, db, log or off.
	AuditLogPolicy   string
	AuditLogComments string
	AuditLogMembers  string

	// Event bus tuning
	EventHandlerTimeout time.Duration // per handler invocation
	EventDrainTimeout   time.Duration // how long shutdown waits for handlers
	EventMaxInFlight    int64

	// Invitation role assignment
	TeacherEmailDomains []string // addresses on these domains join as teacher
	DefaultMemberRole   string   // role for everyone else
	InvitationExpiry    time.Duration
	InvitationSweep     time.Duration // how often expired invitations are purged
	AcceptLimit         int           // accept attempts per user per AcceptWindow
	AcceptWindow        time.Duration

	// Request timeouts (zero keeps the built-in default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration
}
