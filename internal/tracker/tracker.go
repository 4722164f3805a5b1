// Package tracker provides the thread-safe owner of the sleep session and the
// day aggregate for the breath-sensor daemon. Every state change — accepted
// samples, session transitions, day rollover, checkpoints — happens inside its
// lock, so readers and control endpoints never observe a half-applied update.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
	"github.com/sweeney/breath-sensor/internal/store"
)

// Event names a session transition.
type Event string

const (
	EventStarted Event = "STARTED"
	EventPaused  Event = "PAUSED"
	EventResumed Event = "RESUMED"
	EventEnded   Event = "ENDED"
)

// Transition describes one session transition for listeners.
// It is a value type — safe to use after the lock is released.
type Transition struct {
	Event     Event
	State     sleep.State
	SessionID string
	Total     time.Duration // final accumulated sleep, set on ENDED
	At        time.Time
}

// Listener receives transitions. It is invoked outside the tracker lock, on
// the goroutine that triggered the transition.
type Listener func(Transition)

// Snapshot is a point-in-time view of the tracked state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	SessionState sleep.State
	SessionID    string
	Elapsed      time.Duration
	Date         string
	SampleCount  int
	Now          time.Time
}

// Tracker holds the session machine, the day aggregate and the summary store
// handle behind a mutex. The clock is injected so tests control time.
type Tracker struct {
	clock  func() time.Time
	store  *store.Store
	logger *zap.Logger

	mu        sync.Mutex
	session   *sleep.Session
	day       *sleep.Day
	sessionID string
	listener  Listener

	// newID is swapped out by tests that need predictable session IDs.
	newID func() string
}

// New creates a Tracker with an empty session and a day aggregate stamped with
// the clock's current date.
func New(st *store.Store, clock func() time.Time, logger *zap.Logger) *Tracker {
	return &Tracker{
		clock:   clock,
		store:   st,
		logger:  logger,
		session: sleep.NewSession(),
		day:     sleep.NewDay(clock().Format(sleep.DateFormat)),
		newID:   uuid.NewString,
	}
}

// SetListener registers the transition listener. Call before the daemon's
// loops start; the tracker does not synchronize listener replacement.
func (t *Tracker) SetListener(fn Listener) {
	t.mu.Lock()
	t.listener = fn
	t.mu.Unlock()
}

// Accept gates one sensor reading. It returns false while no session is
// active. On accept it stamps the reading with the running sleep total, folds
// it into the day aggregate, and returns the enriched sample for broadcast.
func (t *Tracker) Accept(r sleep.Reading) (sleep.Sample, bool) {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session.State() != sleep.StateActive {
		return sleep.Sample{}, false
	}

	t.rolloverLocked(now)

	sample := sleep.Sample{
		Reading:        r,
		TotalSleepSecs: t.session.Elapsed(now).Seconds(),
	}
	t.day.Add(sample)
	return sample, true
}

// Start begins a new session, discarding any previous accumulation, and
// assigns a fresh session ID.
func (t *Tracker) Start() Transition {
	now := t.clock()

	t.mu.Lock()
	t.session.Start(now)
	t.sessionID = t.newID()
	tr := Transition{
		Event:     EventStarted,
		State:     t.session.State(),
		SessionID: t.sessionID,
		At:        now,
	}
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener(tr)
	}
	return tr
}

// Pause freezes the session timer. It reports false when the session was
// already paused; the listener only fires on an actual change.
func (t *Tracker) Pause() (Transition, bool) {
	now := t.clock()

	t.mu.Lock()
	changed := t.session.Pause(now)
	tr := Transition{
		Event:     EventPaused,
		State:     t.session.State(),
		SessionID: t.sessionID,
		At:        now,
	}
	listener := t.listener
	t.mu.Unlock()

	if changed && listener != nil {
		listener(tr)
	}
	return tr, changed
}

// Resume continues a paused session. It reports false unless the session was
// paused.
func (t *Tracker) Resume() (Transition, bool) {
	now := t.clock()

	t.mu.Lock()
	changed := t.session.Resume(now)
	tr := Transition{
		Event:     EventResumed,
		State:     t.session.State(),
		SessionID: t.sessionID,
		At:        now,
	}
	listener := t.listener
	t.mu.Unlock()

	if changed && listener != nil {
		listener(tr)
	}
	return tr, changed
}

// End closes the session and synchronously materializes the day's summary
// using the final accumulated sleep, then resets the aggregate for the current
// date. A second End reports the same total with changed=false and writes
// nothing. Persistence failures are logged, never surfaced: the caller always
// gets the final total.
func (t *Tracker) End() (Transition, bool) {
	now := t.clock()

	t.mu.Lock()
	total, changed := t.session.End(now)
	tr := Transition{
		Event:     EventEnded,
		State:     t.session.State(),
		SessionID: t.sessionID,
		Total:     total,
		At:        now,
	}
	if changed {
		if err := t.materializeLocked(total.Seconds()); err != nil {
			t.logger.Error("end-of-session summary write failed", zap.Error(err))
		}
		t.day.Reset(now.Format(sleep.DateFormat))
	}
	listener := t.listener
	t.mu.Unlock()

	if changed && listener != nil {
		listener(tr)
	}
	return tr, changed
}

// Checkpoint materializes the current day without resetting it, so a crash
// between checkpoints loses at most one interval of samples. Empty days write
// nothing.
func (t *Tracker) Checkpoint() error {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked(now)
	return t.materializeLocked(t.session.Elapsed(now).Seconds())
}

// Snapshot returns a point-in-time copy of the tracked state.
func (t *Tracker) Snapshot() Snapshot {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		SessionState: t.session.State(),
		SessionID:    t.sessionID,
		Elapsed:      t.session.Elapsed(now),
		Date:         t.day.Date(),
		SampleCount:  t.day.SampleCount(),
		Now:          now,
	}
}

// rolloverLocked finalizes the outgoing day when the date has changed:
// materialize under the old date with the running total, then reset once.
func (t *Tracker) rolloverLocked(now time.Time) {
	today := now.Format(sleep.DateFormat)
	if t.day.Date() == today {
		return
	}
	if err := t.materializeLocked(t.session.Elapsed(now).Seconds()); err != nil {
		t.logger.Error("rollover summary write failed",
			zap.String("date", t.day.Date()),
			zap.Error(err),
		)
	}
	t.day.Reset(today)
}

// materializeLocked writes the day's summary with the given sleep total.
// An empty day is not an error; there is simply nothing to write.
func (t *Tracker) materializeLocked(totalSleepSecs float64) error {
	summary, ok := t.day.Summarize(totalSleepSecs)
	if !ok {
		return nil
	}
	if err := t.store.Write(summary); err != nil {
		return fmt.Errorf("write summary for %s: %w", summary.Date, err)
	}
	t.logger.Info("summary written",
		zap.String("date", summary.Date),
		zap.Int("samples", t.day.SampleCount()),
		zap.Float64("total_sleep_secs", totalSleepSecs),
	)
	return nil
}
