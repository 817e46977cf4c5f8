package studio

import (
	"sync"
	"time"
)

// Store holds one Session and fans out snapshots to subscribers. Every
// mutation goes through Update, which bumps Version.
type Store struct {
	mu     sync.Mutex
	state  Session
	subs   map[int]chan Session
	nextID int
	closed bool
	now    func() time.Time
}

// NewStore wraps the initial session.
func NewStore(initial Session) *Store {
	if initial.UpdatedAt.IsZero() {
		initial.UpdatedAt = time.Now().UTC()
	}
	return &Store{
		state: initial,
		subs:  make(map[int]chan Session),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Update applies fn to the session, bumps the version and notifies
// subscribers. It returns the resulting snapshot.
func (s *Store) Update(fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.state.Version++
	s.state.UpdatedAt = s.now()
	snap := s.copyLocked()
	for _, ch := range s.subs {
		deliver(ch, snap)
	}
	return snap
}

// Subscribe returns a channel that receives the current snapshot immediately
// and then every later one. A subscriber that falls behind only sees the most
// recent snapshot. The channel is closed by cancel or by Close.
func (s *Store) Subscribe() (<-chan Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Session, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.copyLocked()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Subscribers reports the number of open subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription. Updates after Close still apply but are not
// delivered.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) copyLocked() Session {
	snap := s.state
	if s.state.GeneratedVideo != nil {
		v := *s.state.GeneratedVideo
		snap.GeneratedVideo = &v
	}
	return snap
}

// deliver replaces whatever the subscriber has not read yet. Callers hold
// s.mu, so no other sender races for the freed slot.
func deliver(ch chan Session, snap Session) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
