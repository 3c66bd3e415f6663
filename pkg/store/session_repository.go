package store

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in memory for the process lifetime.
// Each session id also owns a mutex: two in-flight supervisor calls for
// the same session must be serialized, while calls for different sessions
// stay independent.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionRepository() *SessionRepository {
	// Sessions expire after an hour of inactivity; expired entries are
	// purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-session mutex and returns the unlock func.
func (r *SessionRepository) Lock(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// LoadOrCreate retrieves the session or creates an empty one. Callers must
// hold the session lock.
func (r *SessionRepository) LoadOrCreate(sessionID string) *Session {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*Session)
	}
	return &Session{ID: sessionID}
}

func (r *SessionRepository) Save(session *Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
