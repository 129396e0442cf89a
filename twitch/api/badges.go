package api

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// badgeManager caches the usable badge set per channel (global and
// room-scoped badges arrive merged from the dispatcher).
type badgeManager struct {
	api   *API
	cache *infocache.Cache[[]model.Badge]
}

func newBadgeManager(a *API, ttl time.Duration) *badgeManager {
	m := &badgeManager{api: a}
	m.cache = infocache.New[[]model.Badge]("badges", ttl, m.fetch, a.logger)
	return m
}

func (m *badgeManager) request(channel syntax.Username, forced bool) {
	key := channel.Normalize().String()
	if forced {
		m.cache.ForceRefresh(key)
		return
	}
	if e := m.cache.Get(key); e.Fresh() {
		m.api.listeners.badgesReceived(channel.Normalize(), e.Value)
	}
}

func (m *badgeManager) fetch(key string) {
	channel := syntax.Username(key)
	m.api.dispatcher.FetchBadges(channel, func(badges []model.Badge, code model.ResultCode) {
		m.api.checkAccess(code)
		if !code.Ok() {
			m.api.logger.Warn("badge fetch failed", "channel", channel, "code", code)
			m.cache.Fail(key)
			return
		}
		m.cache.Put(key, badges)
		m.api.listeners.badgesReceived(channel, badges)
	})
}

// RequestBadges reports the badge set usable in channel to the listeners:
// from cache while fresh, refetched at most once a day otherwise. forced
// bypasses the freshness check, still deduplicated against an in-flight
// fetch.
func (a *API) RequestBadges(channel syntax.Username, forced bool) {
	a.badges.request(channel, forced)
}
