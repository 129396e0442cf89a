package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// Resolver coordinates username→id resolution over an asynchronous Source.
// All methods are safe for concurrent use and none of them blocks on the
// network; Await is the one blocking convenience and waits on the caller's
// context, not inside the resolver.
type Resolver struct {
	source Source
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	ids     map[syntax.Username]Identity
	pending map[syntax.Username]*lookup
}

// lookup tracks one outstanding network batch. Every name in names maps to
// this record in Resolver.pending until the batch completes; done guards
// against a source delivering twice.
type lookup struct {
	names   []syntax.Username
	waiters []*waiter
	done    bool
}

// waiter is one registered listener plus the bookkeeping to assemble its
// result: ids and errs fill in as the lookups it joined complete, and the
// listener fires when remaining reaches zero.
type waiter struct {
	listener  Listener
	names     []syntax.Username
	want      map[syntax.Username]bool
	ids       map[syntax.Username]syntax.UserID
	errs      map[syntax.Username]error
	remaining int
}

func (w *waiter) result() *Result {
	return &Result{names: w.names, ids: w.ids, errs: w.errs}
}

// NewResolver creates a Resolver backed by the given Source.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source:  source,
		logger:  logger.With("component", "identity"),
		now:     time.Now,
		ids:     make(map[syntax.Username]Identity),
		pending: make(map[syntax.Username]*lookup),
	}
}

// RequestIDs asks for the given names to be resolved in the background.
// Names that are already resolved or already in flight are skipped; the rest
// go out as one batched lookup. Fire-and-forget: no listener, no result.
func (r *Resolver) RequestIDs(names ...syntax.Username) {
	resolveRequests.WithLabelValues("request").Inc()
	r.enqueue(nil, names, false)
}

// ResolveAsap resolves the given names with cached mappings taken as-is. If
// every name is already resolved the listener is invoked before ResolveAsap
// returns; otherwise the missing names are fetched (joining any lookups
// already in flight) and the listener fires once they complete. The listener
// is invoked exactly once either way.
func (r *Resolver) ResolveAsap(listener Listener, names ...syntax.Username) {
	resolveRequests.WithLabelValues("asap").Inc()
	r.enqueue(listener, names, false)
}

// WaitFor resolves the given names with a fresh lookup regardless of cached
// state, joining any lookup already in flight for a name rather than issuing
// a duplicate. Use it when a confirmed, just-validated id is required before
// a side-effecting follow-on action. The listener is invoked exactly once.
func (r *Resolver) WaitFor(listener Listener, names ...syntax.Username) {
	resolveRequests.WithLabelValues("wait").Inc()
	r.enqueue(listener, names, true)
}

// SetID seeds or overwrites the mapping for a name without a network call,
// e.g. with the caller's own id as reported by token verification.
func (r *Resolver) SetID(username syntax.Username, id syntax.UserID) {
	name := username.Normalize()
	r.mu.Lock()
	r.ids[name] = Identity{Username: name, UserID: id, ResolvedAt: r.now()}
	r.mu.Unlock()
}

// CachedID returns the resolved id for a name if one is known. It never
// triggers a lookup.
func (r *Resolver) CachedID(username syntax.Username) (syntax.UserID, bool) {
	name := username.Normalize()
	r.mu.Lock()
	rec, ok := r.ids[name]
	r.mu.Unlock()
	if !ok || !rec.Valid() {
		return "", false
	}
	return rec.UserID, true
}

// Await resolves names like ResolveAsap but blocks until the result is
// available or ctx is done. The underlying lookup is not cancelled by ctx;
// it completes and populates the resolver either way.
func (r *Resolver) Await(ctx context.Context, names ...syntax.Username) (*Result, error) {
	ch := make(chan *Result, 1)
	r.ResolveAsap(func(res *Result) {
		ch <- res
	}, names...)
	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enqueue partitions the requested names into already-resolved, in-flight,
// and to-be-fetched, registers the listener with every lookup it depends on,
// and dispatches at most one new batch. fresh skips the already-resolved
// partition so every name gets a live lookup.
func (r *Resolver) enqueue(listener Listener, names []syntax.Username, fresh bool) {
	names = normalizeNames(names)

	var w *waiter
	if listener != nil {
		w = &waiter{
			listener: listener,
			names:    names,
			want:     make(map[syntax.Username]bool, len(names)),
			ids:      make(map[syntax.Username]syntax.UserID),
			errs:     make(map[syntax.Username]error),
		}
		for _, name := range names {
			w.want[name] = true
		}
	}

	var batch []syntax.Username
	var lk *lookup

	r.mu.Lock()
	attached := make(map[*lookup]bool)
	for _, name := range names {
		if !fresh {
			if rec, ok := r.ids[name]; ok && rec.Valid() {
				if w != nil {
					w.ids[name] = rec.UserID
				}
				continue
			}
		}
		if cur, ok := r.pending[name]; ok {
			lookupsCoalesced.Inc()
			if w != nil && !attached[cur] {
				cur.waiters = append(cur.waiters, w)
				attached[cur] = true
				w.remaining++
			}
			continue
		}
		batch = append(batch, name)
	}
	if len(batch) > 0 {
		lk = &lookup{names: batch}
		for _, name := range batch {
			r.pending[name] = lk
		}
		if w != nil {
			lk.waiters = append(lk.waiters, w)
			w.remaining++
		}
	}
	inline := w != nil && w.remaining == 0
	r.mu.Unlock()

	if lk != nil {
		lookupsDispatched.Inc()
		lookupBatchSize.Observe(float64(len(batch)))
		r.logger.Debug("dispatching username lookup", "names", len(batch))
		r.source.LookupUsernames(batch, func(ids map[syntax.Username]syntax.UserID, err error) {
			r.complete(lk, ids, err)
		})
	}
	if inline {
		w.listener(w.result())
	}
}

// complete applies one finished batch: every name in the batch gets its
// Identity record updated, the batch is retired from pending, and every
// waiter whose last outstanding lookup this was is notified. Listeners run
// after the lock is released.
func (r *Resolver) complete(lk *lookup, found map[syntax.Username]syntax.UserID, err error) {
	r.mu.Lock()
	if lk.done {
		r.mu.Unlock()
		r.logger.Warn("duplicate lookup completion dropped", "names", len(lk.names))
		return
	}
	lk.done = true

	now := r.now()
	for _, name := range lk.names {
		delete(r.pending, name)
		rec := Identity{Username: name, ResolvedAt: now}
		switch {
		case err != nil:
			rec.Err = classifyErr(err)
		case found[name] != "":
			rec.UserID = found[name]
		default:
			rec.Err = ErrNotFound
		}
		r.ids[name] = rec
		lookupResults.WithLabelValues(resultStatus(rec.Err)).Inc()
	}

	var fire []*waiter
	for _, w := range lk.waiters {
		for _, name := range lk.names {
			if !w.want[name] {
				continue
			}
			rec := r.ids[name]
			if rec.Err != nil {
				w.errs[name] = rec.Err
			} else {
				w.ids[name] = rec.UserID
			}
		}
		w.remaining--
		if w.remaining == 0 {
			fire = append(fire, w)
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("username lookup failed", "names", len(lk.names), "err", err)
	}
	for _, w := range fire {
		w.listener(w.result())
	}
}

// normalizeNames lowercases and deduplicates while preserving request order.
func normalizeNames(names []syntax.Username) []syntax.Username {
	out := make([]syntax.Username, 0, len(names))
	seen := make(map[syntax.Username]bool, len(names))
	for _, name := range names {
		name = name.Normalize()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
