// internal/app/system/eventbus/eventbus.go
package eventbus

// The bus is single-process and best-effort. Subscriptions are registered
// during startup; the first Publish (or an explicit Seal) freezes the
// register so the publish path can read it without locking.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Topic names for task lifecycle events.
const (
	TopicTaskCreated            = "task.created"
	TopicTaskStatusChanged      = "task.status_changed"
	TopicTaskPriorityChanged    = "task.priority_changed"
	TopicTaskAssigneeChanged    = "task.assignee_changed"
	TopicTaskUnassigned         = "task.unassigned"
	TopicTaskDueDateChanged     = "task.due_date_changed"
	TopicTaskTitleChanged       = "task.title_changed"
	TopicTaskDescriptionChanged = "task.description_changed"
)

// ErrSealed is returned by Subscribe once the bus has started publishing.
var ErrSealed = errors.New("eventbus: subscriptions are sealed")

// Handler consumes one published payload. Returned errors and panics are
// logged by the bus and never reach the publisher.
type Handler func(ctx context.Context, p Payload) error

// Event is a published topic with its payload.
type Event struct {
	Topic   string
	Payload Payload
}

// Options tunes handler execution.
type Options struct {
	// HandlerTimeout bounds each handler invocation. Zero means 10s.
	HandlerTimeout time.Duration
	// MaxInFlight bounds how many handlers run at once. Zero means 64.
	MaxInFlight int64
}

const (
	defaultHandlerTimeout = 10 * time.Second
	defaultMaxInFlight    = 64
)

// Bus dispatches published events to subscribed handlers asynchronously.
type Bus struct {
	log  *zap.Logger
	opts Options

	mu       sync.Mutex // guards handlers until sealed
	handlers map[string][]Handler
	sealed   atomic.Bool

	pubMu    sync.RWMutex // orders wg.Add in Publish against Drain
	draining bool

	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// New creates a Bus. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger, opts Options) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = defaultHandlerTimeout
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	return &Bus{
		log:      logger,
		opts:     opts,
		handlers: make(map[string][]Handler),
		sem:      semaphore.NewWeighted(opts.MaxInFlight),
	}
}

// Subscribe appends h to the handlers for topic. Handlers for a topic are
// started in the order they were subscribed.
func (b *Bus) Subscribe(topic string, h Handler) error {
	if topic == "" {
		return fmt.Errorf("eventbus: empty topic")
	}
	if h == nil {
		return fmt.Errorf("eventbus: nil handler for %q", topic)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed.Load() {
		return ErrSealed
	}
	b.handlers[topic] = append(b.handlers[topic], h)
	return nil
}

// Seal freezes the subscription register. It is idempotent.
func (b *Bus) Seal() {
	b.mu.Lock()
	b.sealed.Store(true)
	b.mu.Unlock()
}

// Publish starts every handler registered for topic and returns immediately.
// It never blocks on handler execution and never reports handler failures.
func (b *Bus) Publish(topic string, payload Payload) {
	if !b.sealed.Load() {
		b.Seal()
	}
	b.pubMu.RLock()
	defer b.pubMu.RUnlock()
	if b.draining {
		b.log.Warn("event dropped: bus is draining", zap.String("topic", topic))
		return
	}

	hs := b.handlers[topic]
	if len(hs) == 0 {
		b.log.Debug("no handlers for topic", zap.String("topic", topic))
		return
	}

	for i, h := range hs {
		b.wg.Add(1)
		b.inFlight.Add(1)
		go b.run(Event{Topic: topic, Payload: payload}, i, h)
	}
}

func (b *Bus) run(ev Event, idx int, h Handler) {
	defer b.wg.Done()
	defer b.inFlight.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.HandlerTimeout)
	defer cancel()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		b.log.Error("event handler not started",
			zap.String("topic", ev.Topic),
			zap.Int("handler", idx),
			zap.Error(err))
		return
	}
	defer b.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("topic", ev.Topic),
				zap.Int("handler", idx),
				zap.Any("panic", r))
		}
	}()

	if err := h(ctx, ev.Payload); err != nil {
		b.log.Error("event handler failed",
			zap.String("topic", ev.Topic),
			zap.Int("handler", idx),
			zap.Error(err))
	}
}

// InFlight reports how many handler invocations have started but not finished.
func (b *Bus) InFlight() int64 {
	return b.inFlight.Load()
}

// Drain stops accepting new events and waits for in-flight handlers to
// finish, or for ctx to end. Events published after Drain starts are dropped.
func (b *Bus) Drain(ctx context.Context) error {
	b.Seal()
	b.pubMu.Lock()
	b.draining = true
	b.pubMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.log.Warn("event bus drain timed out",
			zap.Int64("in_flight", b.inFlight.Load()))
		return fmt.Errorf("eventbus drain: %w", ctx.Err())
	}
}
