package studio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"logoanimator/internal/domain"
)

// Registry maps session ids to their studios.
type Registry struct {
	base    context.Context
	opts    Options
	idleTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	studio   *Studio
	lastSeen time.Time
}

// NewRegistry creates an empty registry. Sessions untouched for idleTTL are
// removed by Sweep; zero keeps them forever.
func NewRegistry(base context.Context, opts Options, idleTTL time.Duration) *Registry {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Registry{
		base:     base,
		opts:     opts,
		idleTTL:  idleTTL,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session.
func (r *Registry) Create(locale string) *Studio {
	st := New(r.base, uuid.NewString(), locale, r.opts)
	r.mu.Lock()
	r.sessions[st.ID()] = &entry{studio: st, lastSeen: r.now()}
	r.mu.Unlock()
	r.log.Info().Str("session_id", st.ID()).Str("locale", st.Snapshot().Locale).Msg("studio: session created")
	return st
}

// Get returns the session and marks it as active.
func (r *Registry) Get(id string) (*Studio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.lastSeen = r.now()
	return e.studio, nil
}

// Delete removes the session, abandoning its job and releasing its media.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	e.studio.Close()
	r.log.Info().Str("session_id", id).Msg("studio: session deleted")
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a job in
// flight are kept, and an open subscription counts as activity. It returns the
// number removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	var expired []*Studio
	r.mu.Lock()
	for id, e := range r.sessions {
		if e.studio.Watched() {
			e.lastSeen = now
			continue
		}
		if now.Sub(e.lastSeen) < r.idleTTL || e.studio.Busy() {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, e.studio)
	}
	r.mu.Unlock()

	for _, st := range expired {
		st.Close()
	}
	if len(expired) > 0 {
		r.log.Info().Int("expired", len(expired)).Msg("studio: idle sessions swept")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Close ends every session and waits for their jobs to return.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Studio, 0, len(r.sessions))
	for id, e := range r.sessions {
		all = append(all, e.studio)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, st := range all {
		st.Close()
	}
	for _, st := range all {
		st.Wait()
	}
}
