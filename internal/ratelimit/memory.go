package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval gates the whole-map cleanup of idle keys.
const sweepInterval = 5 * time.Minute

// Memory is a single-process limiter. State is lost on restart and is not
// shared between instances; use Redis for that.
type Memory struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		limit:     limit,
		window:    window,
		hits:      make(map[string][]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	m.lastSweep = now()
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweep(now)
	}

	recent := m.prune(m.hits[key], now)
	if len(recent) >= m.limit {
		m.hits[key] = recent
		return Decision{
			Allowed:    false,
			RetryAfter: recent[0].Add(m.window).Sub(now),
		}, nil
	}

	m.hits[key] = append(recent, now)
	return Decision{Allowed: true, Remaining: m.limit - len(recent) - 1}, nil
}

// Reset forgets every key.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = make(map[string][]time.Time)
	m.lastSweep = m.now()
}

// Len is the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// prune drops timestamps that have left the window. ts is in arrival order.
func (m *Memory) prune(ts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func (m *Memory) sweep(now time.Time) {
	for key, ts := range m.hits {
		if recent := m.prune(ts, now); len(recent) == 0 {
			delete(m.hits, key)
		} else {
			m.hits[key] = recent
		}
	}
	m.lastSweep = now
}
