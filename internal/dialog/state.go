package dialog

import (
	"sync"
	"time"

	"github.com/rraild/vuzbot/internal/profile"
)

// State is the position of one user inside the data-entry and search
// conversation. The set is closed; transitions happen only through the
// engine's dispatch tables.
type State int

const (
	StateIdle State = iota
	StateConfirmClearOldData
	StateChangeDataMenu
	StateCollectingCity
	StateSubjectPicker
	StateCollectingScore
	StateSpecializationPicker
	StateAwaitingBudgetChoice
	StateReviewingResults
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirmClearOldData:
		return "confirm_clear_old_data"
	case StateChangeDataMenu:
		return "change_data_menu"
	case StateCollectingCity:
		return "collecting_city"
	case StateSubjectPicker:
		return "subject_picker"
	case StateCollectingScore:
		return "collecting_score"
	case StateSpecializationPicker:
		return "specialization_picker"
	case StateAwaitingBudgetChoice:
		return "awaiting_budget_choice"
	case StateReviewingResults:
		return "reviewing_results"
	}
	return "unknown"
}

// Result is the per-session view of one match: enough to render the list and
// its buttons. The full record is fetched by id when the user opens it.
type Result struct {
	ID   int64
	Name string
}

// Session is the per-user transient conversation context. It lives in memory
// for the duration of the dialog only; profile data is the durable part.
type Session struct {
	State     State
	Subject   profile.Subject // subject currently being scored
	Results   []Result        // ordered match ids and names
	PageIndex int

	touched time.Time
}

const (
	sessionTTL    = 30 * time.Minute
	sweepInterval = time.Minute
)

// Sessions is a lazily-populated session map. Access is serialized for the
// map itself; per-user event ordering is the transport's responsibility.
// Sessions idle past the TTL are dropped so the map tracks active dialogs
// only.
type Sessions struct {
	mu        sync.Mutex
	m         map[string]*Session
	lastSweep time.Time
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

// Get returns the session for userID, creating an idle one on first use.
func (s *Sessions) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.sweep(now)
	sess, ok := s.m[userID]
	if !ok {
		sess = &Session{State: StateIdle}
		s.m[userID] = sess
	}
	sess.touched = now
	return sess
}

// sweep drops sessions idle past the TTL, at most once per sweepInterval.
// Callers hold the lock.
func (s *Sessions) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, sess := range s.m {
		if now.Sub(sess.touched) > sessionTTL {
			delete(s.m, id)
		}
	}
}

// Reset drops the user's session; the next Get starts an idle one.
func (s *Sessions) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
