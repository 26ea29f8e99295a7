package aggregate

import (
	"github.com/google/uuid"

	"whendropped/internal/dates"
)

// SessionKind says what the session was resolved from.
type SessionKind string

const (
	KindSong  SessionKind = "song"
	KindAlbum SessionKind = "album"
	KindDate  SessionKind = "date"
)

// SessionState is the lifecycle of one aggregation run.
type SessionState string

const (
	// StatePending: created, no sub-fetch has completed yet.
	StatePending SessionState = "pending"
	// StateInFlight: some but not all sub-fetches have completed.
	StateInFlight SessionState = "in_flight"
	// StateComplete: every expected sub-fetch has reported.
	StateComplete SessionState = "complete"
	// StateSuperseded: a newer session took over; late results are dropped.
	StateSuperseded SessionState = "superseded"
)

// Session is one in-flight aggregation run. All mutable fields are guarded
// by the owning manager's lock; sub-fetch goroutines never touch them
// directly, they go through Manager.deliver.
type Session struct {
	ID   string
	Kind SessionKind
	Date dates.PartialDate

	m          *Manager
	total      int
	done       int
	superseded bool
}

func newSession(m *Manager, kind SessionKind, total int) *Session {
	return &Session{
		ID:    uuid.NewString(),
		Kind:  kind,
		m:     m,
		total: total,
	}
}

// State reports where the session is in its lifecycle. Completion is
// terminal: a session that finished before being replaced stays complete.
// Only a session replaced mid-flight reports superseded.
func (s *Session) State() SessionState {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	switch {
	case s.done >= s.total:
		return StateComplete
	case s.superseded:
		return StateSuperseded
	case s.done == 0:
		return StatePending
	default:
		return StateInFlight
	}
}

// Progress returns the done/total counters.
func (s *Session) Progress() (done, total int) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.done, s.total
}

// deliver runs a render callback if sess is still the current session,
// dropping it silently otherwise. The manager lock serializes all sink
// calls, so renders never interleave.
func (m *Manager) deliver(sess *Session, render func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != sess {
		m.log.Debug("dropping stale result for session %s", sess.ID)
		return
	}
	render()
}

// complete is deliver plus a progress tick: one sub-fetch of the session has
// finished, successfully or not.
func (m *Manager) complete(sess *Session, render func()) {
	m.deliver(sess, func() {
		render()
		if sess.done < sess.total {
			sess.done++
		}
		m.sink.ReportProgress(sess.done, sess.total)
	})
}
