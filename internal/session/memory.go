package session

import (
	"context"
	"sync"
	"time"

	"github.com/codedrill/codedrill/internal/exercise"
)

// MemoryStore keeps sessions in process memory with a TTL sweep.
// The default backend; state does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

type memorySession struct {
	sess    Session
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store. Sessions expire ttl
// after their last use; ttl <= 0 means 24h.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *MemoryStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for token, ms := range m.sessions {
				if now.After(ms.expires) {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryStore) Create(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Token] = &memorySession{sess: *sess, expires: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[token]
	if !ok || time.Now().After(ms.expires) {
		return nil, ErrNotFound
	}
	sess := ms.sess
	return &sess, nil
}

func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) SetExercise(ctx context.Context, token string, ex *exercise.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[token]
	if !ok || time.Now().After(ms.expires) {
		return ErrNotFound
	}
	ms.sess.Exercise = ex
	ms.expires = time.Now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) CurrentExercise(ctx context.Context, token string) (*exercise.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[token]
	if !ok || time.Now().After(ms.expires) {
		return nil, ErrNotFound
	}
	if ms.sess.Exercise == nil {
		return nil, ErrNoExercise
	}
	ex := *ms.sess.Exercise
	return &ex, nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
