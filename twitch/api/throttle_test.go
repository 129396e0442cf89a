package api

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestThrottleAutomaticWindow(t *testing.T) {
	assert := assert.New(t)
	clk := newFakeClock()
	th := NewThrottle(600 * time.Second)
	th.now = clk.Now

	assert.True(th.AllowAutomatic())

	clk.Advance(599 * time.Second)
	assert.False(th.AllowAutomatic())

	clk.Advance(2 * time.Second)
	assert.True(th.AllowAutomatic())
}

func TestThrottleExactBoundary(t *testing.T) {
	assert := assert.New(t)
	clk := newFakeClock()
	th := NewThrottle(600 * time.Second)
	th.now = clk.Now

	assert.True(th.AllowAutomatic())
	clk.Advance(600 * time.Second)
	assert.True(th.AllowAutomatic())
}

func TestThrottleManualResetsWindow(t *testing.T) {
	assert := assert.New(t)
	clk := newFakeClock()
	th := NewThrottle(600 * time.Second)
	th.now = clk.Now

	assert.True(th.AllowAutomatic())

	// a manual run halfway through pushes the next automatic one out
	clk.Advance(300 * time.Second)
	th.NoteManual()

	clk.Advance(301 * time.Second)
	assert.False(th.AllowAutomatic())

	clk.Advance(299 * time.Second)
	assert.True(th.AllowAutomatic())
}

func TestThrottleDeniedLeavesWindow(t *testing.T) {
	assert := assert.New(t)
	clk := newFakeClock()
	th := NewThrottle(600 * time.Second)
	th.now = clk.Now

	assert.True(th.AllowAutomatic())

	// denied checks do not push the window out
	for i := 0; i < 5; i++ {
		clk.Advance(100 * time.Second)
		assert.False(th.AllowAutomatic())
	}
	clk.Advance(100 * time.Second)
	assert.True(th.AllowAutomatic())
}
