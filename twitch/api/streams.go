package api

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// streamManager tracks live status per channel. A fetch triggered for one
// channel rides the currently-open channel set along in the same network
// call, so a client polling one channel keeps all its open channels fresh
// with a single request per cadence.
type streamManager struct {
	api   *API
	cache *infocache.Cache[model.StreamStatus]

	// open is the most recently reported set of open channels, consulted
	// when a fetch fires. Guarded by the api mutex.
	open []syntax.Username
}

func newStreamManager(a *API, ttl time.Duration) *streamManager {
	m := &streamManager{api: a}
	m.cache = infocache.New[model.StreamStatus]("streams", ttl, m.fetch, a.logger)
	return m
}

func (m *streamManager) setOpen(open []syntax.Username) {
	normalized := make([]syntax.Username, 0, len(open))
	for _, s := range open {
		if s = s.Normalize(); s != "" {
			normalized = append(normalized, s)
		}
	}
	m.api.mu.Lock()
	m.open = normalized
	m.api.mu.Unlock()
}

func (m *streamManager) currentOpen() []syntax.Username {
	m.api.mu.Lock()
	defer m.api.mu.Unlock()
	return m.open
}

// get returns the cached status for stream, triggering a batched background
// fetch when it is unfetched or stale. open is the caller's currently-open
// channel set, always present, possibly empty.
func (m *streamManager) get(stream syntax.Username, open []syntax.Username) infocache.Entry[model.StreamStatus] {
	m.setOpen(open)
	return m.cache.Get(stream.Normalize().String())
}

// manualRefresh forces a refresh of every open channel. The first forced key
// claims the rest as riders, so this still costs one network call.
func (m *streamManager) manualRefresh(open []syntax.Username) {
	m.setOpen(open)
	for _, s := range m.currentOpen() {
		m.cache.ForceRefresh(s.String())
	}
}

// fetch batches the triggering stream with any open channels not already
// being fetched, and dispatches a single status request for the lot.
func (m *streamManager) fetch(key string) {
	batch := []syntax.Username{syntax.Username(key)}
	for _, rider := range m.currentOpen() {
		if rider.String() == key {
			continue
		}
		if m.cache.BeginFetch(rider.String()) {
			batch = append(batch, rider)
		}
	}
	m.api.dispatcher.FetchStreams(batch, func(found []model.StreamStatus, code model.ResultCode) {
		m.complete(batch, found, code)
	})
}

// complete applies one finished status batch. Channels absent from the
// response are live nowhere: they get an explicit offline status rather than
// a failure, so their entries stay fresh too.
func (m *streamManager) complete(batch []syntax.Username, found []model.StreamStatus, code model.ResultCode) {
	m.api.checkAccess(code)
	if !code.Ok() {
		m.api.logger.Warn("stream status fetch failed", "code", code, "streams", len(batch))
		for _, s := range batch {
			m.cache.Fail(s.String())
		}
		return
	}
	live := make(map[syntax.Username]model.StreamStatus, len(found))
	for _, st := range found {
		live[st.Channel.Normalize()] = st
	}
	for _, s := range batch {
		st, ok := live[s]
		if !ok {
			st = model.StreamStatus{Channel: s, Live: false}
		}
		m.cache.Put(s.String(), st)
		m.api.listeners.streamUpdated(st)
	}
}

// followedStreams fetches the live streams of the token's account and folds
// them into the status cache.
func (m *streamManager) followedStreams() {
	m.api.dispatcher.FetchFollowedStreams(m.api.Token(), func(streams []model.StreamStatus, code model.ResultCode) {
		m.api.checkAccess(code)
		if code.Ok() {
			for _, st := range streams {
				m.cache.Put(st.Channel.Normalize().String(), st)
				m.api.listeners.streamUpdated(st)
			}
		}
		m.api.listeners.followedStreams(streams, code)
	})
}

// GetStreamInfo returns the cached live status for stream without blocking,
// triggering a background refresh when unfetched or stale. The triggered
// fetch batches the channel with the open set in one network call. open is
// the caller's currently-open channel list and may be empty.
func (a *API) GetStreamInfo(stream syntax.Username, open []syntax.Username) infocache.Entry[model.StreamStatus] {
	return a.streams.get(stream, open)
}

// GetOnlyCachedStreamInfo returns the cached live status without ever
// triggering a fetch.
func (a *API) GetOnlyCachedStreamInfo(stream syntax.Username) infocache.Entry[model.StreamStatus] {
	return a.streams.cache.GetOnlyCached(stream.Normalize().String())
}

// ManualRefreshStreams refreshes every open channel's live status now,
// regardless of freshness.
func (a *API) ManualRefreshStreams(open []syntax.Username) {
	a.streams.manualRefresh(open)
}

// GetFollowedStreams fetches the live streams followed by the current
// token's account and reports them to the listeners.
func (a *API) GetFollowedStreams() {
	a.streams.followedStreams()
}
