package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	calls  atomic.Int64
	cutoff atomic.Value
	n      int64
	err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls.Add(1)
	f.cutoff.Store(cutoff)
	return f.n, f.err
}

func TestInvitationSweep_SweepOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := &fakePurger{n: 3}
	w := NewInvitationSweep(p, zap.New(core), time.Hour)
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if got := w.SweepOnce(context.Background()); got != 3 {
		t.Errorf("SweepOnce = %d, want 3", got)
	}
	if got := p.cutoff.Load().(time.Time); !got.Equal(fixed) {
		t.Errorf("cutoff = %v, want %v", got, fixed)
	}
	if logs.FilterMessage("purged expired invitations").Len() != 1 {
		t.Error("expected a purge log entry")
	}
}

func TestInvitationSweep_SweepOnceError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := NewInvitationSweep(&fakePurger{err: errors.New("down")}, zap.New(core), time.Hour)

	if got := w.SweepOnce(context.Background()); got != 0 {
		t.Errorf("SweepOnce = %d, want 0", got)
	}
	if logs.FilterMessage("invitation purge failed").Len() != 1 {
		t.Error("expected an error log entry")
	}
}

func TestInvitationSweep_StartStop(t *testing.T) {
	p := &fakePurger{}
	w := NewInvitationSweep(p, zap.NewNop(), 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if p.calls.Load() == 0 {
		t.Error("expected the ticker to trigger at least one sweep")
	}
	after := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if p.calls.Load() != after {
		t.Error("sweep ran after Stop")
	}
}
