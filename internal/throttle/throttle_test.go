package throttle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLimiter_Cooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(30 * time.Second)
	l.nowF = func() time.Time { return now }

	if ok, _ := l.Allow(ctx, "fp1"); !ok {
		t.Fatal("first Allow should succeed")
	}
	if ok, _ := l.Allow(ctx, "fp1"); ok {
		t.Error("second Allow within cooldown should be throttled")
	}
	if ok, _ := l.Allow(ctx, "fp2"); !ok {
		t.Error("a different key should not be throttled")
	}

	now = now.Add(29 * time.Second)
	if ok, _ := l.Allow(ctx, "fp1"); ok {
		t.Error("Allow at 29s should be throttled")
	}
	now = now.Add(time.Second)
	if ok, _ := l.Allow(ctx, "fp1"); !ok {
		t.Error("Allow after cooldown should succeed")
	}
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(0)
	for i := 0; i < 3; i++ {
		if ok, err := l.Allow(ctx, "fp1"); !ok || err != nil {
			t.Errorf("Allow #%d = %v, %v; want true, nil", i, ok, err)
		}
	}
}

func TestMemoryLimiter_EmptyKey(t *testing.T) {
	l := NewMemoryLimiter(time.Minute)
	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(context.Background(), ""); !ok {
			t.Error("empty key should never be throttled")
		}
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(time.Second)
	l.nowF = func() time.Time { return now }

	for i := 0; i < 1100; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("k%d", i))
	}
	now = now.Add(2 * time.Second)
	_, _ = l.Allow(ctx, "fresh")

	l.mu.Lock()
	n := len(l.m)
	l.mu.Unlock()
	if n != 1 {
		t.Errorf("entries after sweep = %d, want 1", n)
	}
}

func TestMemoryLimiter_ConcurrentAllow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(time.Minute)

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(ctx, "same"); ok {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	if allowed != 1 {
		t.Errorf("allowed = %d, want 1", allowed)
	}
}
