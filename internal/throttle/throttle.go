// Package throttle limits how often a verification email may be re-sent for one address.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether an action keyed by key may run now and, if so, starts its cooldown.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is an in-process Limiter. Entries are dropped lazily once their cooldown ends.
type MemoryLimiter struct {
	cooldown time.Duration

	mu   sync.Mutex
	m    map[string]time.Time
	nowF func() time.Time
}

// NewMemoryLimiter returns a limiter that allows one action per key every cooldown. A cooldown <= 0 allows everything.
func NewMemoryLimiter(cooldown time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cooldown: cooldown,
		m:        make(map[string]time.Time),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// Allow returns true and starts the cooldown when key has none running.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.cooldown <= 0 || key == "" {
		return true, nil
	}
	now := l.nowF()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.m[key]; ok && until.After(now) {
		return false, nil
	}
	l.m[key] = now.Add(l.cooldown)
	l.sweep(now)
	return true, nil
}

// sweep drops expired entries once the map grows. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.m) < 1024 {
		return
	}
	for k, until := range l.m {
		if !until.After(now) {
			delete(l.m, k)
		}
	}
}
