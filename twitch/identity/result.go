package identity

import "github.com/glimmerchat/amethyst/twitch/syntax"

// Result is the aggregated outcome of one resolution request. It covers
// exactly the names the request asked for; each name carries either a valid
// id or an error marker, never both.
type Result struct {
	names []syntax.Username
	ids   map[syntax.Username]syntax.UserID
	errs  map[syntax.Username]error
}

// Usernames returns the requested names, normalized and deduplicated, in
// request order.
func (r *Result) Usernames() []syntax.Username {
	return r.names
}

// HasError reports whether any requested name failed to resolve.
func (r *Result) HasError() bool {
	return len(r.errs) > 0
}

// ID returns the resolved id for a requested name, or the error that name
// resolved to. Asking for a name that was not part of the request reports
// ErrNotFound.
func (r *Result) ID(username syntax.Username) (syntax.UserID, error) {
	name := username.Normalize()
	if err, ok := r.errs[name]; ok {
		return "", err
	}
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

// Err returns the first error in request order, or nil if every name
// resolved.
func (r *Result) Err() error {
	for _, name := range r.names {
		if err, ok := r.errs[name]; ok {
			return err
		}
	}
	return nil
}

// IDs returns the successfully resolved subset as a name→id map. The map is
// shared with the Result and must not be modified.
func (r *Result) IDs() map[syntax.Username]syntax.UserID {
	return r.ids
}
