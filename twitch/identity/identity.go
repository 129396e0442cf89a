// Package identity resolves Twitch usernames to their opaque account ids.
//
// Resolution is asynchronous and coalesced: concurrent requests for
// overlapping names share a single outstanding network lookup per name, and
// every registered listener is notified exactly once with the outcome for
// its own requested set. Resolved mappings are retained for the process
// lifetime; failed resolutions are recorded but retried on the next request
// for the same name.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/glimmerchat/amethyst/twitch/syntax"
)

var (
	// ErrNotFound indicates the username does not correspond to any account.
	ErrNotFound = errors.New("username not found")

	// ErrAccessDenied indicates the lookup was rejected for authorization
	// reasons (bad or expired token).
	ErrAccessDenied = errors.New("access denied")

	// ErrLookupFailed indicates a transport or unclassified failure. The
	// underlying cause is attached to the returned error.
	ErrLookupFailed = errors.New("username lookup failed")
)

// Identity is a single resolved username→id mapping. Err is non-nil when the
// most recent resolution attempt for the name failed; such records are kept
// for inspection but do not satisfy later requests.
type Identity struct {
	Username   syntax.Username
	UserID     syntax.UserID
	ResolvedAt time.Time
	Err        error
}

// Valid reports whether the record carries a usable id.
func (i Identity) Valid() bool {
	return i.Err == nil && i.UserID != ""
}

// Listener receives the outcome of a resolution request. It is invoked
// exactly once per request: before the registering call returns when no
// network round-trip is needed, otherwise later from the goroutine that
// delivers the network response. Implementations must not assume any
// particular goroutine.
type Listener func(*Result)

// Source performs the actual network lookup for a batch of usernames.
// Implementations must not block the caller; the expected shape is handing
// the batch to a request dispatcher. deliver must be invoked exactly once,
// from any goroutine: ids carries the subset of names that resolved (names
// absent from the map are treated as not found), and a non-nil err marks
// every name in the batch as failed with that error.
type Source interface {
	LookupUsernames(names []syntax.Username, deliver func(ids map[syntax.Username]syntax.UserID, err error))
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(names []syntax.Username, deliver func(ids map[syntax.Username]syntax.UserID, err error))

func (f SourceFunc) LookupUsernames(names []syntax.Username, deliver func(ids map[syntax.Username]syntax.UserID, err error)) {
	f(names, deliver)
}

// classifyErr maps an arbitrary source error onto the package's error
// taxonomy, preserving errors that are already classified.
func classifyErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied), errors.Is(err, ErrLookupFailed):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
}
