// internal/testutil/app.go
package testutil

import (
	"sync"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	membershipstore "github.com/dalemusser/taskhub/internal/app/store/memberships"
	"github.com/dalemusser/taskhub/internal/app/store/queries/policyqueries"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/eventbus"
	"github.com/dalemusser/taskhub/internal/app/system/gates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewGate returns a Gate over the real policy engine for db, with audit
// logging disabled.
func NewGate(db *mongo.Database) *gates.Gate {
	return NewAuditedGate(db, auditlog.New(nil, zap.NewNop(), auditlog.Config{
		Policy:   auditlog.Off,
		Comments: auditlog.Off,
		Members:  auditlog.Off,
	}))
}

// NewAuditedGate is NewGate with denials going to audit.
func NewAuditedGate(db *mongo.Database, audit *auditlog.Logger) *gates.Gate {
	engine := taskpolicy.New(membershipstore.New(db), policyqueries.New(db), zap.NewNop())
	return gates.New(engine, audit, zap.NewNop())
}

// RecordingBus captures published events synchronously.
type RecordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *RecordingBus) Publish(topic string, payload eventbus.Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventbus.Event{Topic: topic, Payload: payload})
}

// Events returns a copy of everything published so far.
func (b *RecordingBus) Events() []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]eventbus.Event(nil), b.events...)
}
