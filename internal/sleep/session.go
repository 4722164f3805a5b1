package sleep

import "time"

// Session tracks one sleep session across start, pause, resume and end.
// The timer only advances while the session is active: the open interval is
// folded into accumulated on pause and end, so elapsed time is exact across
// any number of pause/resume cycles.
type Session struct {
	state       State
	startTime   time.Time // start of the open interval; zero when none
	accumulated time.Duration
}

// NewSession creates a session in the idle state.
func NewSession() *Session {
	return &Session{state: StateIdle}
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Start begins a fresh session. Any previous accumulation is discarded, so a
// start while already active restarts the timer from zero.
func (s *Session) Start(now time.Time) {
	s.state = StateActive
	s.startTime = now
	s.accumulated = 0
}

// Pause suspends the timer. Pausing is idempotent and lands in the paused
// state from anywhere; the timer only advances if an interval was actually
// open. Reports whether the state changed.
func (s *Session) Pause(now time.Time) bool {
	changed := s.state != StatePaused
	s.closeInterval(now)
	s.state = StatePaused
	return changed
}

// Resume reopens the timer. Only meaningful from the paused state; anything
// else is a no-op. Reports whether the state changed.
func (s *Session) Resume(now time.Time) bool {
	if s.state != StatePaused {
		return false
	}
	s.state = StateActive
	s.startTime = now
	return true
}

// End closes the session and returns the final accumulated time. Ending an
// already ended session changes nothing and reports false.
func (s *Session) End(now time.Time) (time.Duration, bool) {
	if s.state == StateEnded {
		return s.accumulated, false
	}
	s.closeInterval(now)
	s.state = StateEnded
	return s.accumulated, true
}

// Elapsed returns total active time so far: everything accumulated plus the
// open interval when the session is active. Never negative.
func (s *Session) Elapsed(now time.Time) time.Duration {
	total := s.accumulated
	if s.state == StateActive && !s.startTime.IsZero() {
		if d := now.Sub(s.startTime); d > 0 {
			total += d
		}
	}
	return total
}

// closeInterval folds the open interval, if any, into accumulated.
func (s *Session) closeInterval(now time.Time) {
	if s.state == StateActive && !s.startTime.IsZero() {
		if d := now.Sub(s.startTime); d > 0 {
			s.accumulated += d
		}
	}
	s.startTime = time.Time{}
}
