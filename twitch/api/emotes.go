package api

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
)

// globalEmoteKey is the single key of the emote cache; the global emoticon
// set is one entity, not per-channel.
const globalEmoteKey = "global"

type emoteManager struct {
	api   *API
	cache *infocache.Cache[[]model.Emote]
}

func newEmoteManager(a *API, ttl time.Duration) *emoteManager {
	m := &emoteManager{api: a}
	m.cache = infocache.New[[]model.Emote]("emotes", ttl, m.fetch, a.logger)
	return m
}

func (m *emoteManager) request(forced bool) {
	if forced {
		m.cache.ForceRefresh(globalEmoteKey)
		return
	}
	if e := m.cache.Get(globalEmoteKey); e.Fresh() {
		m.api.listeners.emotesReceived(e.Value)
	}
}

func (m *emoteManager) fetch(string) {
	m.api.dispatcher.FetchEmotes(func(emotes []model.Emote, code model.ResultCode) {
		m.api.checkAccess(code)
		if !code.Ok() {
			m.api.logger.Warn("emote fetch failed", "code", code)
			m.cache.Fail(globalEmoteKey)
			return
		}
		m.cache.Put(globalEmoteKey, emotes)
		m.api.listeners.emotesReceived(emotes)
	})
}

// RequestEmotes reports the global emoticon set to the listeners: from cache
// while fresh, refetched at most once a day otherwise. forced bypasses the
// freshness check, still deduplicated against an in-flight fetch.
func (a *API) RequestEmotes(forced bool) {
	a.emotes.request(forced)
}
