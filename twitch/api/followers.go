package api

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// followerManager serves follower pages per stream; a second instance with
// FollowTypeSubscriber serves subscriber pages through the authenticated
// endpoint. Results always reach the FollowersReceived listener: from cache
// when fresh, otherwise once the triggered fetch completes.
type followerManager struct {
	api   *API
	ftype model.FollowType
	cache *infocache.Cache[model.FollowerInfo]
}

func newFollowerManager(a *API, ftype model.FollowType, ttl time.Duration) *followerManager {
	m := &followerManager{api: a, ftype: ftype}
	m.cache = infocache.New[model.FollowerInfo](ftype.String()+"s", ttl, m.fetch, a.logger)
	return m
}

func (m *followerManager) request(stream syntax.Username) {
	e := m.cache.Get(stream.Normalize().String())
	if e.Fresh() {
		info := e.Value
		m.api.listeners.followersReceived(m.ftype, &info, model.ResultSuccess)
	}
}

func (m *followerManager) fetch(key string) {
	stream := syntax.Username(key)
	m.api.dispatcher.FetchFollowers(m.ftype, m.api.Token(), stream, func(info *model.FollowerInfo, code model.ResultCode) {
		m.api.checkAccess(code)
		if !code.Ok() || info == nil {
			m.api.logger.Warn("follower fetch failed", "type", m.ftype, "stream", stream, "code", code)
			m.cache.Fail(key)
			m.api.listeners.followersReceived(m.ftype, nil, code)
			return
		}
		m.cache.Put(key, *info)
		m.api.listeners.followersReceived(m.ftype, info, code)
	})
}

// RequestFollowers reports follower data for stream to the listeners:
// immediately when the cache is fresh, otherwise after a fetch. Repeated
// calls within the TTL cost no network traffic.
func (a *API) RequestFollowers(stream syntax.Username) {
	a.followers.request(stream)
}

// RequestSubscribers is RequestFollowers for the subscriber relation; the
// underlying call is authenticated and requires a broadcaster token.
func (a *API) RequestSubscribers(stream syntax.Username) {
	a.subs.request(stream)
}
