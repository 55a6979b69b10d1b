package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val []byte
	exp time.Time
}

// Memory is a process-local cache. When full, expired entries are swept first
// and then arbitrary ones until the size is back under max.
type Memory struct {
	mu   sync.Mutex
	max  int
	data map[string]entry
	now  func() time.Time
}

func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 10000
	}
	return &Memory{max: max, data: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.exp) {
		delete(m.data, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{val: append([]byte(nil), val...), exp: now.Add(ttl)}
	if len(m.data) > m.max {
		for k, e := range m.data {
			if !now.Before(e.exp) {
				delete(m.data, k)
			}
		}
		for k := range m.data {
			if len(m.data) <= m.max {
				break
			}
			if k != key {
				delete(m.data, k)
			}
		}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
