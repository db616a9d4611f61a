package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingPinger struct {
	calls atomic.Int64
	err   error
}

func (p *countingPinger) Ping(context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestService_RejectsBadSchedule(t *testing.T) {
	s := NewService("not a schedule", zap.NewNop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestService_PingsRegisteredStores(t *testing.T) {
	s := NewService("@every 1h", zap.NewNop())
	profiles := &countingPinger{}
	catalog := &countingPinger{err: errors.New("locked")}
	s.Register("profiles", profiles)
	s.Register("catalog", catalog)

	// Drive the round directly instead of waiting for the scheduler.
	s.pingAll(context.Background())
	if profiles.calls.Load() != 1 || catalog.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want one ping each",
			profiles.calls.Load(), catalog.calls.Load())
	}

	// A failing store never blocks the others.
	s.pingAll(context.Background())
	if profiles.calls.Load() != 2 {
		t.Errorf("healthy store pinged %d times, want 2", profiles.calls.Load())
	}
}

func TestService_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewService("@every 1h", zap.NewNop())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	select {
	case <-s.cron.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("cron did not stop after cancel")
	}
}
