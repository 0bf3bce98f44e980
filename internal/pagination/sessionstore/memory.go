package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orderdesk/orderdesk/internal/metrics"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
)

type memoryEntry struct {
	session   pagination.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Updates to the whole store are
// serialized by one mutex; fetches run outside it.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ pagination.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store whose sessions expire ttl after their last
// write. A zero ttl keeps sessions until deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, s pagination.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[s.ID]; ok && !m.expired(e) {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.put(s)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (pagination.Session, error) {
	if err := ctx.Err(); err != nil {
		return pagination.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(id)
	if !ok {
		return pagination.Session{}, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	return e.session, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(pagination.Session) (pagination.Session, error)) (pagination.Session, error) {
	if err := ctx.Err(); err != nil {
		return pagination.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(id)
	if !ok {
		return pagination.Session{}, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	next, err := fn(e.session)
	if err != nil {
		return e.session, err
	}
	m.put(next)
	return next, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(id); !ok {
		return fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	delete(m.entries, id)
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) lookup(id string) (memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if m.expired(e) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) put(s pagination.Session) {
	e := memoryEntry{session: s}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[s.ID] = e
	metrics.ActiveSessions.Set(float64(len(m.entries)))
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
