package lock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token   uint64
	expires time.Time
}

// Memory is an in-process Locker. Expired keys are reclaimed lazily on the
// next Acquire.
type Memory struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	seq  uint64
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{held: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.held[key]; ok && now.Before(e.expires) {
		return nil, ErrHeld
	}
	m.seq++
	token := m.seq
	m.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if e, ok := m.held[key]; ok && e.token == token {
				delete(m.held, key)
			}
		})
	}, nil
}

// Held reports whether key is currently locked.
func (m *Memory) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.held[key]
	return ok && m.now().Before(e.expires)
}
