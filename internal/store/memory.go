package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// MemoryStore is an in-process SessionStore for tests and the dev server.
// Snapshots round-trip through JSON so callers get copy semantics identical
// to the Redis store. Expiry is lazy: entries past their deadline read as
// absent. Update holds a per-key lock, so concurrent updates on one session
// serialise while different sessions proceed independently.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	actors   map[string]memoryEntry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// now is the clock, replaceable in tests to exercise TTL expiry.
	now func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		actors:   make(map[string]memoryEntry),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

// SetClock replaces the store clock. Test hook.
func (m *MemoryStore) SetClock(now func() time.Time) { m.now = now }

// Get returns the session snapshot for id, or combat.ErrSessionNotFound
// when absent or expired.
func (m *MemoryStore) Get(_ context.Context, id string) (*combat.Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || entry.expired(m.now()) {
		return nil, combat.ErrSessionNotFound
	}
	return decodeSession(entry.data)
}

// Put writes the session snapshot under id with the given TTL.
func (m *MemoryStore) Put(_ context.Context, id string, sess *combat.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", id, err)
	}
	m.mu.Lock()
	m.sessions[id] = memoryEntry{data: payload, expiresAt: m.deadline(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes the session snapshot for id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Update performs an atomic read-modify-write on the session under id,
// serialised by a per-key mutex. Errors from fn abort the update with
// nothing written and pass through unchanged.
func (m *MemoryStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*combat.Session) (*combat.Session, error)) (*combat.Session, error) {
	lock := m.keyLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if err := m.Put(ctx, id, updated, ttl); err != nil {
		return nil, err
	}
	return updated, nil
}

// BindActor records the actor → session index entry with the given TTL.
func (m *MemoryStore) BindActor(_ context.Context, actorID, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	m.actors[actorID] = memoryEntry{data: []byte(sessionID), expiresAt: m.deadline(ttl)}
	m.mu.Unlock()
	return nil
}

// ActorSession returns the session id bound to actorID, or
// combat.ErrSessionNotFound when no live binding exists.
func (m *MemoryStore) ActorSession(_ context.Context, actorID string) (string, error) {
	m.mu.RLock()
	entry, ok := m.actors[actorID]
	m.mu.RUnlock()
	if !ok || entry.expired(m.now()) {
		return "", combat.ErrSessionNotFound
	}
	return string(entry.data), nil
}

// ReleaseActor removes the actor → session index entry.
func (m *MemoryStore) ReleaseActor(_ context.Context, actorID string) error {
	m.mu.Lock()
	delete(m.actors, actorID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryStore) keyLock(id string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}
