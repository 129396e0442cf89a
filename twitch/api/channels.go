package api

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// channelManager caches editable channel metadata, which changes rarely
// compared to live status and exists even while a channel is offline.
type channelManager struct {
	api   *API
	cache *infocache.Cache[model.ChannelInfo]
}

func newChannelManager(a *API, ttl time.Duration) *channelManager {
	m := &channelManager{api: a}
	m.cache = infocache.New[model.ChannelInfo]("channels", ttl, m.fetch, a.logger)
	return m
}

func (m *channelManager) fetch(key string) {
	channel := syntax.Username(key)
	m.api.dispatcher.FetchChannel(channel, func(info *model.ChannelInfo, code model.ResultCode) {
		m.api.checkAccess(code)
		if !code.Ok() || info == nil {
			m.api.logger.Warn("channel info fetch failed", "channel", channel, "code", code)
			m.cache.Fail(key)
			m.api.listeners.channelInfoReceived(code, nil)
			return
		}
		m.cache.Put(key, *info)
		m.api.listeners.channelInfoReceived(code, info)
	})
}

// GetCachedChannelInfo returns the cached metadata for channel without
// blocking, triggering a background fetch when unfetched or stale.
func (a *API) GetCachedChannelInfo(channel syntax.Username) infocache.Entry[model.ChannelInfo] {
	return a.channels.cache.Get(channel.Normalize().String())
}

// GetOnlyCachedChannelInfo returns the cached metadata without ever
// triggering a fetch.
func (a *API) GetOnlyCachedChannelInfo(channel syntax.Username) infocache.Entry[model.ChannelInfo] {
	return a.channels.cache.GetOnlyCached(channel.Normalize().String())
}

// RequestChannelInfo fetches channel metadata now, regardless of freshness,
// deduplicated against any fetch already in flight. The result arrives via
// the ChannelInfoReceived listener.
func (a *API) RequestChannelInfo(channel syntax.Username) {
	a.channels.cache.ForceRefresh(channel.Normalize().String())
}

// PutChannelInfo writes title and game back to the channel. On success the
// local cache is updated with the written values; the outcome arrives via
// the ChannelInfoPosted listener.
func (a *API) PutChannelInfo(info model.ChannelInfo) {
	commandOps.WithLabelValues("put_channel").Inc()
	info.Channel = info.Channel.Normalize()
	a.dispatcher.UpdateChannel(a.Token(), info, func(code model.ResultCode) {
		a.checkAccess(code)
		if code.Ok() {
			a.channels.cache.Put(info.Channel.String(), info)
		} else {
			a.logger.Warn("channel info update failed", "channel", info.Channel, "code", code)
		}
		a.listeners.channelInfoPosted(code)
	})
}
