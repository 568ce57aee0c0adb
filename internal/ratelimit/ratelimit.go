// Package ratelimit implements fixed-window request counters for the login
// and registration endpoints.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(count, limit int, ttl time.Duration) Decision {
	d := Decision{Allowed: count <= limit, Limit: limit, Remaining: limit - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed && ttl > 0 {
		d.RetryAfter = ttl
	}
	return d
}

// Memory is a per-process limiter. Counts are not shared between replicas.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*bucket
	now     func() time.Time

	// last full scan; scans run at most once per window
	lastSweep time.Time
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// sweep expired buckets once the map grows past this size
const sweepThreshold = 4096

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) > sweepThreshold && now.Sub(m.lastSweep) >= m.window {
		m.lastSweep = now
		for k, b := range m.clients {
			if now.After(b.windowEnd) {
				delete(m.clients, k)
			}
		}
	}

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		b = &bucket{windowEnd: now.Add(m.window)}
		m.clients[key] = b
	}
	b.count++

	return decide(b.count, m.limit, b.windowEnd.Sub(now)), nil
}
