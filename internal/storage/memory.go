package storage

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/constants"
	"github.com/safedata/safedata/pkg/errors"
)

// MemoryStore is the default SessionStore: a mutex-guarded map with TTL
// expiry. Suitable for a single-instance deployment; sessions do not survive
// a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	stopOnce sync.Once
	closed   bool
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryStore creates a memory-backed session store. A non-positive ttl
// falls back to the default session TTL.
func NewMemoryStore(ttl time.Duration, logger *logrus.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	if logger == nil {
		logger = logrus.New()
	}

	store := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	go store.sweep()

	return store
}

// Connect is a no-op for the memory backend
func (m *MemoryStore) Connect(ctx context.Context) error {
	return nil
}

// Put stores or replaces a session and resets its TTL
func (m *MemoryStore) Put(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.NewStorageError(errors.CodeStoreClosed, "session store is closed")
	}

	session.UpdatedAt = time.Now().UTC()
	m.sessions[session.ID] = &memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

// Get retrieves a session by id
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, errors.NewStorageError(errors.CodeSessionNotFound, "session not found").
			WithContext("session_id", id)
	}
	return entry.session, nil
}

// Delete removes a session
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return errors.NewStorageError(errors.CodeSessionNotFound, "session not found").
			WithContext("session_id", id)
	}
	delete(m.sessions, id)
	return nil
}

// Count returns the number of unexpired sessions
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	count := int64(0)
	for _, entry := range m.sessions {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}

// Health always reports healthy while the store is open
func (m *MemoryStore) Health(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errors.NewStorageError(errors.CodeStoreClosed, "session store is closed")
	}
	return nil
}

// Close stops the sweeper and drops all sessions
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = make(map[string]*memoryEntry)
	return nil
}

// sweep drops expired sessions periodically
func (m *MemoryStore) sweep() {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			expired := 0
			for id, entry := range m.sessions {
				if now.After(entry.expiresAt) {
					delete(m.sessions, id)
					expired++
				}
			}
			m.mu.Unlock()

			if expired > 0 {
				m.logger.WithField("expired", expired).Debug("Swept expired sessions")
			}
		}
	}
}
