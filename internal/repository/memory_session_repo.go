package repository

import (
	"context"
	"sync"
	"time"

	"resume-agent/internal/domain"
)

type memoryEntry struct {
	session domain.Session
	touched time.Time
}

// MemorySessionRepository guarda las sesiones en un mapa del proceso.
// Con ttl y max en cero no hay expiracion ni limite de capacidad.
type MemorySessionRepository struct {
	mu    sync.RWMutex
	items map[string]*memoryEntry
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration, max int) *MemorySessionRepository {
	return &MemorySessionRepository{
		items: make(map[string]*memoryEntry),
		ttl:   ttl,
		max:   max,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemorySessionRepository) GetOrCreate(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.items[id]; ok && !r.expired(e, now) {
		e.touched = now
		return e.session.Clone(), nil
	}

	delete(r.items, id)
	r.evictLocked(now)
	session := domain.NewSession(id)
	r.items[id] = &memoryEntry{session: session.Clone(), touched: now}
	return session, nil
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.items[id]
	if !ok {
		return domain.Session{}, ErrSessionNotFound
	}
	if r.expired(e, now) {
		delete(r.items, id)
		return domain.Session{}, ErrSessionNotFound
	}
	e.touched = now
	return e.session.Clone(), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if _, ok := r.items[session.ID]; !ok {
		r.evictLocked(now)
	}
	r.items[session.ID] = &memoryEntry{session: session.Clone(), touched: now}
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// Len devuelve la cantidad de sesiones vivas.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *MemorySessionRepository) expired(e *memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.touched) > r.ttl
}

// evictLocked purga expiradas y, si se alcanzo el maximo, la sesion tocada hace mas tiempo.
func (r *MemorySessionRepository) evictLocked(now time.Time) {
	if r.ttl > 0 {
		for id, e := range r.items {
			if r.expired(e, now) {
				delete(r.items, id)
			}
		}
	}
	if r.max <= 0 {
		return
	}
	for len(r.items) >= r.max {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range r.items {
			if oldestID == "" || e.touched.Before(oldest) {
				oldestID, oldest = id, e.touched
			}
		}
		delete(r.items, oldestID)
	}
}
