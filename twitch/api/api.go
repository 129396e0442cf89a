// Package api is the client-facing coordination layer for a Twitch-style
// streaming platform: it composes the username→id resolver, the per-entity
// metadata caches, and the token-check throttle on top of an asynchronous
// request Dispatcher, and fans results out to registered Listeners.
//
// No method here blocks on network I/O. Reads return immediately with a
// validity state and trigger background refreshes as needed; command
// operations dispatch asynchronously and report through the Listeners.
package api

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glimmerchat/amethyst/twitch/identity"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// Options tune cache lifetimes and throttling. The zero value of any field
// falls back to its default.
type Options struct {
	Logger *slog.Logger

	// StreamTTL is how long live status stays fresh; it should match the
	// application's polling cadence.
	StreamTTL time.Duration

	// ChannelTTL is how long editable channel metadata stays fresh.
	ChannelTTL time.Duration

	// FollowerTTL is how long follower/subscriber pages stay fresh.
	FollowerTTL time.Duration

	// AssetTTL is how long emoticon and badge sets stay fresh.
	AssetTTL time.Duration

	// SearchTTL and SearchCacheSize bound the game search result cache.
	SearchTTL       time.Duration
	SearchCacheSize int

	// TokenCheckInterval spaces automatic token verifications.
	TokenCheckInterval time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		StreamTTL:          60 * time.Second,
		ChannelTTL:         10 * time.Minute,
		FollowerTTL:        60 * time.Second,
		AssetTTL:           24 * time.Hour,
		SearchTTL:          5 * time.Minute,
		SearchCacheSize:    100,
		TokenCheckInterval: TokenCheckInterval,
	}
}

func (o *Options) withDefaults() *Options {
	def := DefaultOptions()
	if o == nil {
		return def
	}
	out := *o
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.StreamTTL == 0 {
		out.StreamTTL = def.StreamTTL
	}
	if out.ChannelTTL == 0 {
		out.ChannelTTL = def.ChannelTTL
	}
	if out.FollowerTTL == 0 {
		out.FollowerTTL = def.FollowerTTL
	}
	if out.AssetTTL == 0 {
		out.AssetTTL = def.AssetTTL
	}
	if out.SearchTTL == 0 {
		out.SearchTTL = def.SearchTTL
	}
	if out.SearchCacheSize == 0 {
		out.SearchCacheSize = def.SearchCacheSize
	}
	if out.TokenCheckInterval == 0 {
		out.TokenCheckInterval = def.TokenCheckInterval
	}
	return &out
}

// API is the facade over the coordination layer. Construct with New; all
// methods are safe for concurrent use.
type API struct {
	dispatcher Dispatcher
	listeners  *Listeners
	logger     *slog.Logger

	resolver   *identity.Resolver
	tokenCheck *Throttle

	streams   *streamManager
	channels  *channelManager
	followers *followerManager
	subs      *followerManager
	emotes    *emoteManager
	badges    *badgeManager
	search    *gameSearch

	mu    sync.Mutex
	token string
}

// New builds an API over the given dispatcher. listeners may be nil to
// ignore all notifications, opts may be nil for defaults.
func New(dispatcher Dispatcher, listeners *Listeners, opts *Options) *API {
	opts = opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "twitchapi")

	a := &API{
		dispatcher: dispatcher,
		listeners:  listeners,
		logger:     logger,
		resolver:   identity.NewResolver(dispatcher, logger),
		tokenCheck: NewThrottle(opts.TokenCheckInterval),
	}
	a.streams = newStreamManager(a, opts.StreamTTL)
	a.channels = newChannelManager(a, opts.ChannelTTL)
	a.followers = newFollowerManager(a, model.FollowTypeFollower, opts.FollowerTTL)
	a.subs = newFollowerManager(a, model.FollowTypeSubscriber, opts.FollowerTTL)
	a.emotes = newEmoteManager(a, opts.AssetTTL)
	a.badges = newBadgeManager(a, opts.AssetTTL)
	a.search = newGameSearch(a, opts.SearchCacheSize, opts.SearchTTL)
	return a
}

// SetToken replaces the credential used by all authenticated calls.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Token returns the current credential.
func (a *API) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// checkAccess fans an ACCESS_DENIED result out to the listeners. The API
// never retries the rejected call itself.
func (a *API) checkAccess(code model.ResultCode) {
	if code != model.ResultAccessDenied {
		return
	}
	accessDeniedTotal.Inc()
	a.logger.Warn("authenticated call rejected")
	a.listeners.accessDenied()
}

// RequestUserIDs resolves the given names in the background, skipping names
// already known or already in flight. Fire-and-forget.
func (a *API) RequestUserIDs(names ...syntax.Username) {
	a.resolver.RequestIDs(names...)
}

// GetUserIDs resolves names against cached mappings where possible and
// invokes deliver exactly once with the aggregated result, inline if no
// lookup is needed.
func (a *API) GetUserIDs(deliver identity.Listener, names ...syntax.Username) {
	a.resolver.ResolveAsap(deliver, names...)
}

// WaitForUserIDs resolves names with a fresh lookup regardless of cached
// state and invokes deliver exactly once on completion.
func (a *API) WaitForUserIDs(deliver identity.Listener, names ...syntax.Username) {
	a.resolver.WaitFor(deliver, names...)
}

// SetUserID seeds a username→id mapping without a network call.
func (a *API) SetUserID(username syntax.Username, id syntax.UserID) {
	a.resolver.SetID(username, id)
}

// CachedUserID returns the id for a name if it has been resolved. It never
// triggers a lookup.
func (a *API) CachedUserID(username syntax.Username) (syntax.UserID, bool) {
	return a.resolver.CachedID(username)
}

// VerifyToken runs a token verification immediately. Manual verification
// also resets the automatic check window.
func (a *API) VerifyToken() {
	tokenChecks.WithLabelValues("manual").Inc()
	a.tokenCheck.NoteManual()
	a.verifyToken()
}

// CheckToken runs a token verification only if the automatic check window
// has elapsed; otherwise it is a no-op.
func (a *API) CheckToken() {
	if !a.tokenCheck.AllowAutomatic() {
		tokenChecks.WithLabelValues("throttled").Inc()
		return
	}
	tokenChecks.WithLabelValues("auto").Inc()
	a.verifyToken()
}

func (a *API) verifyToken() {
	token := a.Token()
	a.dispatcher.VerifyToken(token, func(info *model.TokenInfo, code model.ResultCode) {
		a.checkAccess(code)
		if code.Ok() && info != nil && info.Valid && info.Login != "" && info.UserID != "" {
			// the verified token names our own account; seed the
			// resolver so follow-style operations don't look it up
			a.resolver.SetID(info.Login, info.UserID)
		}
		if !code.Ok() {
			a.logger.Warn("token verification failed", "code", code)
			info = nil
		}
		a.listeners.tokenVerified(token, info)
	})
}

// FollowChannel makes user follow target. Both names are resolved with a
// fresh lookup first; if the target does not resolve, no follow call is
// issued and the failure message names the target and the cause.
func (a *API) FollowChannel(user, target syntax.Username) {
	a.follow(user, target, true)
}

// UnfollowChannel removes user's follow of target, with the same resolution
// behavior as FollowChannel.
func (a *API) UnfollowChannel(user, target syntax.Username) {
	a.follow(user, target, false)
}

func (a *API) follow(user, target syntax.Username, on bool) {
	verb := "follow"
	if !on {
		verb = "unfollow"
	}
	commandOps.WithLabelValues(verb).Inc()
	a.resolver.WaitFor(func(res *identity.Result) {
		toID, err := res.ID(target)
		if err != nil {
			a.listeners.followResult(fmt.Sprintf("Couldn't %s '%s' (%v)", verb, target, err))
			return
		}
		fromID, err := res.ID(user)
		if err != nil {
			a.listeners.followResult(fmt.Sprintf("Couldn't %s '%s' (%v)", verb, user, err))
			return
		}
		deliver := func(code model.ResultCode) {
			a.checkAccess(code)
			if code.Ok() {
				if on {
					a.listeners.followResult(fmt.Sprintf("Now following '%s'", target))
				} else {
					a.listeners.followResult(fmt.Sprintf("No longer following '%s'", target))
				}
				return
			}
			a.listeners.followResult(fmt.Sprintf("Couldn't %s '%s' (%s)", verb, target, code))
		}
		if on {
			a.dispatcher.Follow(a.Token(), fromID, toID, deliver)
		} else {
			a.dispatcher.Unfollow(a.Token(), fromID, toID, deliver)
		}
	}, user, target)
}

// RunCommercial starts an ad break of the given length in seconds on the
// stream. The stream name is resolved with a fresh lookup first.
func (a *API) RunCommercial(stream syntax.Username, length int) {
	commandOps.WithLabelValues("commercial").Inc()
	a.resolver.WaitFor(func(res *identity.Result) {
		id, err := res.ID(stream)
		if err != nil {
			a.listeners.commercialResult(stream, fmt.Sprintf("Couldn't run commercial on '%s' (%v)", stream, err), model.ResultInvalidChannel)
			return
		}
		a.dispatcher.RunCommercial(a.Token(), id, length, func(code model.ResultCode, message string) {
			a.checkAccess(code)
			a.listeners.commercialResult(stream, message, code)
		})
	}, stream)
}

// AutoMod approves or denies a message held back by AutoMod.
func (a *API) AutoMod(action AutoModAction, msgID string) {
	commandOps.WithLabelValues("automod").Inc()
	a.dispatcher.AutoMod(a.Token(), action, msgID, func(code model.ResultCode) {
		a.checkAccess(code)
		a.listeners.autoModResult(action, msgID, code)
	})
}

// RequestChatInfo fetches a channel's chat settings and reports them to the
// listeners.
func (a *API) RequestChatInfo(stream syntax.Username) {
	commandOps.WithLabelValues("chat_info").Inc()
	a.dispatcher.FetchChatInfo(stream.Normalize(), func(info *model.ChatInfo, code model.ResultCode) {
		a.checkAccess(code)
		if !code.Ok() {
			info = nil
		}
		a.listeners.chatInfoReceived(info, code)
	})
}
