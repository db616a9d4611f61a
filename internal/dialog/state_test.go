package dialog

import (
	"testing"
	"time"
)

func TestSessions_GetCreatesIdle(t *testing.T) {
	s := NewSessions()
	sess := s.Get("u1")
	if sess.State != StateIdle {
		t.Errorf("state = %v, want idle", sess.State)
	}
	if s.Get("u1") != sess {
		t.Error("repeated Get returned a different session")
	}
}

func TestSessions_ResetDropsEntry(t *testing.T) {
	s := NewSessions()
	s.Get("u1").State = StateReviewingResults
	s.Get("u1").Results = []Result{{ID: 1, Name: "МГУ"}}

	s.Reset("u1")
	s.mu.Lock()
	_, kept := s.m["u1"]
	s.mu.Unlock()
	if kept {
		t.Error("reset session still held in the map")
	}
	if got := s.Get("u1").State; got != StateIdle {
		t.Errorf("state after reset = %v, want idle", got)
	}
}

func TestSessions_EvictsIdleSessions(t *testing.T) {
	s := NewSessions()
	s.Get("stale")
	s.Get("active")

	s.mu.Lock()
	s.m["stale"].touched = time.Now().Add(-2 * sessionTTL)
	s.lastSweep = time.Now().Add(-2 * sweepInterval)
	s.mu.Unlock()

	s.Get("active")

	s.mu.Lock()
	_, staleKept := s.m["stale"]
	_, activeKept := s.m["active"]
	s.mu.Unlock()
	if staleKept {
		t.Error("idle session survived the sweep")
	}
	if !activeKept {
		t.Error("active session was evicted")
	}
}

func TestSessions_SweepThrottled(t *testing.T) {
	s := NewSessions()
	s.Get("stale")

	s.mu.Lock()
	s.m["stale"].touched = time.Now().Add(-2 * sessionTTL)
	s.lastSweep = time.Now()
	s.mu.Unlock()

	s.Get("other")

	s.mu.Lock()
	_, kept := s.m["stale"]
	s.mu.Unlock()
	if !kept {
		t.Error("sweep ran again inside the throttle window")
	}
}
