package infocache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// State classifies what a cache read means.
type State int

const (
	// StateUnfetched means no fetch has ever completed for the key; the
	// entry value is a placeholder and must not be used.
	StateUnfetched State = iota
	// StateFetching means there is no usable value yet, but a fetch is
	// underway.
	StateFetching
	// StateValid means the value is within its TTL.
	StateValid
	// StateStale means the TTL elapsed; the value is still usable while a
	// refresh runs in the background.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	default:
		return "unfetched"
	}
}

// Entry is an immutable snapshot of a cache slot at read time.
type Entry[T any] struct {
	Key       string
	Value     T
	State     State
	FetchedAt time.Time
}

// Usable reports whether Value carries real data (fresh or stale).
func (e Entry[T]) Usable() bool {
	return e.State == StateValid || e.State == StateStale
}

// Fresh reports whether Value is within its TTL.
func (e Entry[T]) Fresh() bool {
	return e.State == StateValid
}

// FetchFunc starts an asynchronous fetch for key. Implementations must not
// block the caller: the expected shape is handing the key to a request
// dispatcher whose completion callback calls Put (or Fail) on the cache.
// FetchFunc may be invoked from any goroutine that reads the cache.
type FetchFunc func(key string)

// Cache is a per-key metadata cache with TTL-based staleness and at most one
// in-flight fetch per key. The zero value is not usable; construct with New.
type Cache[T any] struct {
	name    string
	ttl     time.Duration
	fetch   FetchFunc
	logger  *slog.Logger
	entries *xsync.MapOf[string, *slot[T]]
	now     func() time.Time
}

// slot is the mutable per-key record. Slots are created lazily on first
// reference and never removed.
type slot[T any] struct {
	mu        sync.Mutex
	value     T
	hasValue  bool
	fetchedAt time.Time
	fetching  bool
}

// New creates a cache named for metrics and logging. A ttl of zero or less
// means values never go stale. fetch must be non-nil for any cache read
// through Get or ForceRefresh.
func New[T any](name string, ttl time.Duration, fetch FetchFunc, logger *slog.Logger) *Cache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[T]{
		name:    name,
		ttl:     ttl,
		fetch:   fetch,
		logger:  logger.With("cache", name),
		entries: xsync.NewMapOf[string, *slot[T]](),
		now:     time.Now,
	}
}

// Get returns the current entry for key without ever blocking on the
// network. An unfetched key yields an UNFETCHED placeholder and triggers a
// background fetch; an expired entry is returned stale-but-usable while a
// refresh is triggered. Triggered fetches are deduplicated against any fetch
// already in flight for the key.
func (c *Cache[T]) Get(key string) Entry[T] {
	s := c.slot(key)
	s.mu.Lock()
	e := c.snapshotLocked(key, s)
	var trigger string
	if !s.fetching {
		switch e.State {
		case StateUnfetched:
			trigger = "miss"
		case StateStale:
			trigger = "expired"
		}
		if trigger != "" {
			s.fetching = true
		}
	}
	s.mu.Unlock()

	cacheReads.WithLabelValues(c.name, e.State.String()).Inc()
	if trigger != "" {
		c.startFetch(key, trigger)
	}
	return e
}

// GetOnlyCached is a pure read: it never triggers a fetch. A key that has
// never been fetched yields an UNFETCHED placeholder.
func (c *Cache[T]) GetOnlyCached(key string) Entry[T] {
	s, ok := c.entries.Load(key)
	if !ok {
		return Entry[T]{Key: key, State: StateUnfetched}
	}
	s.mu.Lock()
	e := c.snapshotLocked(key, s)
	s.mu.Unlock()
	return e
}

// ForceRefresh schedules a fetch for key even if the current value is still
// valid, deduplicated against any fetch already in flight for the key.
func (c *Cache[T]) ForceRefresh(key string) {
	if c.BeginFetch(key) {
		c.startFetch(key, "forced")
	}
}

// BeginFetch marks key as having a fetch in flight without starting one, so
// a caller batching several keys into one network request can claim the
// riders. It reports false when a fetch is already outstanding for the key;
// the claim is released by Put or Fail like any other fetch.
func (c *Cache[T]) BeginFetch(key string) bool {
	s := c.slot(key)
	s.mu.Lock()
	claimed := !s.fetching
	s.fetching = true
	s.mu.Unlock()
	return claimed
}

// Put stores a fetched value for key and retires any in-flight fetch
// bookkeeping. A completed fetch for the exact key is the only way a value
// transitions to VALID.
func (c *Cache[T]) Put(key string, value T) {
	s := c.slot(key)
	s.mu.Lock()
	s.value = value
	s.hasValue = true
	s.fetchedAt = c.now()
	s.fetching = false
	s.mu.Unlock()
}

// Fail retires an in-flight fetch without touching the stored value: an
// unfetched key stays unfetched, a stale value stays stale and remains
// eligible to trigger the next refresh.
func (c *Cache[T]) Fail(key string) {
	s, ok := c.entries.Load(key)
	if !ok {
		return
	}
	s.mu.Lock()
	s.fetching = false
	s.mu.Unlock()
	cacheFetchFailures.WithLabelValues(c.name).Inc()
}

// Len reports how many keys have been referenced so far.
func (c *Cache[T]) Len() int {
	return c.entries.Size()
}

func (c *Cache[T]) slot(key string) *slot[T] {
	s, _ := c.entries.LoadOrCompute(key, func() *slot[T] {
		return &slot[T]{}
	})
	return s
}

func (c *Cache[T]) snapshotLocked(key string, s *slot[T]) Entry[T] {
	e := Entry[T]{Key: key, FetchedAt: s.fetchedAt}
	if !s.hasValue {
		if s.fetching {
			e.State = StateFetching
		} else {
			e.State = StateUnfetched
		}
		return e
	}
	e.Value = s.value
	if c.ttl > 0 && c.now().Sub(s.fetchedAt) > c.ttl {
		e.State = StateStale
	} else {
		e.State = StateValid
	}
	return e
}

func (c *Cache[T]) startFetch(key, trigger string) {
	cacheFetches.WithLabelValues(c.name, trigger).Inc()
	c.logger.Debug("starting fetch", "key", key, "trigger", trigger)
	c.fetch(key)
}
