package signal

import (
	"sync"
	"time"
)

// PushRateLimiter caps how many pushes of one event are sent per window.
type PushRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewPushRateLimiter(limit int, interval time.Duration) *PushRateLimiter {
	return &PushRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *PushRateLimiter) Allow(event string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[event]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[event] = fresh
		return false
	}

	rl.history[event] = append(fresh, now)
	return true
}
