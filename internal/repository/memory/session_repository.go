package memory

import (
	"context"
	"sync"
	"time"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/state"

	"github.com/patrickmn/go-cache"
)

type sessionEntry struct {
	mu      sync.Mutex
	session *store.TutoringSession
	removed bool
}

// SessionRepository keeps sessions in a go-cache. Active sessions never
// expire; completed ones are kept for completedTTL so late turns still get a
// meaningful error.
type SessionRepository struct {
	mu           sync.Mutex
	cache        *cache.Cache
	completedTTL time.Duration
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(completedTTL time.Duration) *SessionRepository {
	if completedTTL <= 0 {
		completedTTL = 10 * time.Minute
	}
	return &SessionRepository{
		cache:        cache.New(cache.NoExpiration, time.Minute),
		completedTTL: completedTTL,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *store.TutoringSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entry(session.ID); ok {
		existing.mu.Lock()
		active := !existing.removed && !state.State(existing.session.State).Terminal()
		if !active {
			existing.removed = true
		}
		existing.mu.Unlock()
		if active {
			return apperror.InvalidState("session " + session.ID + " is still in progress")
		}
	}

	r.cache.Set(session.ID, &sessionEntry{session: session.Clone()}, r.ttl(session))
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*store.TutoringSession, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, apperror.SessionNotFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, apperror.SessionNotFound(id)
	}
	return e.session.Clone(), nil
}

func (r *SessionRepository) Mutate(ctx context.Context, id string, fn contract.MutateFunc) error {
	e, ok := r.entry(id)
	if !ok {
		return apperror.SessionNotFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return apperror.SessionNotFound(id)
	}

	next, err := fn(e.session.Clone())
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	next.ID = id
	e.session = next

	if state.State(next.State).Terminal() {
		// re-set to start the expiry clock of a finished session
		r.cache.Set(id, e, r.completedTTL)
	}
	return nil
}

// Delete holds r.mu like Create so that a session started concurrently under
// the same id is never the one removed.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entry(id); ok {
		r.remove(id, e)
	}
	return nil
}

// remove marks e removed and drops it from the cache only while the cache
// still holds e under id. Callers hold r.mu.
func (r *SessionRepository) remove(id string, e *sessionEntry) {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	if cur, ok := r.entry(id); ok && cur == e {
		r.cache.Delete(id)
	}
}

// Count reports the number of sessions held, finished ones included.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

func (r *SessionRepository) entry(id string) (*sessionEntry, bool) {
	x, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	return x.(*sessionEntry), true
}

func (r *SessionRepository) ttl(s *store.TutoringSession) time.Duration {
	if state.State(s.State).Terminal() {
		return r.completedTTL
	}
	return cache.NoExpiration
}
