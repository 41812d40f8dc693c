package history

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	thread    Thread
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are invisible to
// Load and are removed by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	opts     Options
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) (Thread, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}
	return e.thread.clone(), true, nil
}

func (m *MemoryStore) Append(_ context.Context, key string, turn Turn) (Thread, error) {
	if strings.TrimSpace(turn.Text) == "" {
		return nil, ErrEmptyTurn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var thread Thread
	if e, ok := m.live(key); ok {
		thread = append(e.thread.clone(), turn)
	} else {
		thread = m.opts.newThread(turn)
	}
	m.sessions[key] = entry{thread: thread, expiresAt: m.now().Add(m.opts.TTL)}
	return thread.clone(), nil
}

// Sweep drops every entry expired at now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// live must be called with mu held.
func (m *MemoryStore) live(key string) (entry, bool) {
	e, ok := m.sessions[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return entry{}, false
	}
	return e, true
}
