// internal/app/system/workers/invitationsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger deletes invitations that expired before cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// InvitationSweep is a background worker that removes invitations nobody
// can accept any more.
type InvitationSweep struct {
	store    Purger
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewInvitationSweep creates a sweep that runs every interval.
func NewInvitationSweep(store Purger, logger *zap.Logger, interval time.Duration) *InvitationSweep {
	return &InvitationSweep{
		store:    store,
		log:      logger,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *InvitationSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invitation sweep started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *InvitationSweep) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("invitation sweep stopped")
	})
}

func (w *InvitationSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			w.SweepOnce(ctx)
			cancel()
		}
	}
}

// SweepOnce purges once and returns how many invitations were removed.
func (w *InvitationSweep) SweepOnce(ctx context.Context) int64 {
	count, err := w.store.PurgeExpired(ctx, w.now())
	if err != nil {
		w.log.Error("invitation purge failed", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("purged expired invitations", zap.Int64("count", count))
	}
	return count
}
