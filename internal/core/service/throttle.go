package service

import (
	"sync"
	"time"

	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const (
	DefaultThrottleWindow      = 5 * time.Minute
	DefaultThrottleMaxAttempts = 5
)

// LoginThrottle counts login attempts per source address over a sliding
// window. State is process-local and lost on restart; instances behind a load
// balancer each keep their own counts.
type LoginThrottle struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
	clock    ports.Clock
}

// NewLoginThrottle creates a throttle. Non-positive values fall back to the defaults.
func NewLoginThrottle(window time.Duration, maxAttempts int, clock ports.Clock) *LoginThrottle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultThrottleMaxAttempts
	}
	return &LoginThrottle{
		attempts: make(map[string][]time.Time),
		window:   window,
		max:      maxAttempts,
		clock:    clock,
	}
}

// Check reports whether another attempt from source is allowed and, if so,
// records it. Attempts are counted whether or not they later succeed.
func (t *LoginThrottle) Check(source string) bool {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	recent := prune(t.attempts[source], now, t.window)
	if len(recent) >= t.max {
		t.attempts[source] = recent
		return false
	}
	t.attempts[source] = append(recent, now)
	return true
}

// Sweep forgets sources whose attempts have all left the window.
func (t *LoginThrottle) Sweep() int {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for source, history := range t.attempts {
		recent := prune(history, now, t.window)
		if len(recent) == 0 {
			delete(t.attempts, source)
			removed++
			continue
		}
		t.attempts[source] = recent
	}
	return removed
}

// Tracked returns the number of sources currently held.
func (t *LoginThrottle) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attempts)
}

// prune keeps the timestamps younger than window. history is ordered, so the
// cut is a prefix.
func prune(history []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(history) && now.Sub(history[i]) >= window {
		i++
	}
	if i == 0 {
		return history
	}
	return append([]time.Time(nil), history[i:]...)
}
