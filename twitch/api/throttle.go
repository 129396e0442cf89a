package api

import (
	"sync"
	"time"
)

// TokenCheckInterval is the minimum spacing between automatic token
// verifications.
const TokenCheckInterval = 600 * time.Second

// Throttle bounds how often an expensive operation may run automatically:
// at most once per interval. Manual runs are never blocked but reset the
// automatic window, so an explicit check pushes the next automatic one out
// by a full interval. Safe for concurrent use.
type Throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// AllowAutomatic reports whether an automatic run is due. When it returns
// true the window start has already been advanced, so concurrent callers
// get at most one true per interval.
func (t *Throttle) AllowAutomatic() bool {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// NoteManual records an explicit run. The window start only moves forward.
func (t *Throttle) NoteManual() {
	now := t.now()
	t.mu.Lock()
	if now.After(t.last) {
		t.last = now
	}
	t.mu.Unlock()
}
