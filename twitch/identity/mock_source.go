package identity

import (
	"sync"

	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// MockSource is a Source implementation for tests. It resolves from a fixed
// in-memory table and by default delivers synchronously; Hold switches it to
// manual delivery so tests can exercise in-flight coalescing
// deterministically.
type MockSource struct {
	mu      sync.Mutex
	table   map[syntax.Username]syntax.UserID
	failErr error
	held    bool
	calls   [][]syntax.Username
	queue   []heldLookup
}

type heldLookup struct {
	names   []syntax.Username
	deliver func(map[syntax.Username]syntax.UserID, error)
}

var _ Source = (*MockSource)(nil)

func NewMockSource() *MockSource {
	return &MockSource{table: make(map[syntax.Username]syntax.UserID)}
}

// Add registers a known username→id mapping.
func (m *MockSource) Add(username syntax.Username, id syntax.UserID) {
	m.mu.Lock()
	m.table[username.Normalize()] = id
	m.mu.Unlock()
}

// Fail makes every subsequent lookup report err. Pass nil to restore normal
// behavior.
func (m *MockSource) Fail(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Hold stops automatic delivery; lookups queue up until ReleaseAll.
func (m *MockSource) Hold() {
	m.mu.Lock()
	m.held = true
	m.mu.Unlock()
}

// ReleaseAll delivers every held lookup in arrival order and switches back
// to automatic delivery.
func (m *MockSource) ReleaseAll() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.held = false
	m.mu.Unlock()
	for _, h := range queue {
		m.deliverNow(h.names, h.deliver)
	}
}

// Calls returns the name batches received so far.
func (m *MockSource) Calls() [][]syntax.Username {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]syntax.Username, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockSource) LookupUsernames(names []syntax.Username, deliver func(map[syntax.Username]syntax.UserID, error)) {
	m.mu.Lock()
	batch := make([]syntax.Username, len(names))
	copy(batch, names)
	m.calls = append(m.calls, batch)
	if m.held {
		m.queue = append(m.queue, heldLookup{names: batch, deliver: deliver})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.deliverNow(batch, deliver)
}

func (m *MockSource) deliverNow(names []syntax.Username, deliver func(map[syntax.Username]syntax.UserID, error)) {
	m.mu.Lock()
	if m.failErr != nil {
		err := m.failErr
		m.mu.Unlock()
		deliver(nil, err)
		return
	}
	found := make(map[syntax.Username]syntax.UserID)
	for _, name := range names {
		if id, ok := m.table[name]; ok {
			found[name] = id
		}
	}
	m.mu.Unlock()
	deliver(found, nil)
}
