package api

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerchat/amethyst/twitch/identity"
	"github.com/glimmerchat/amethyst/twitch/infocache"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type followCall struct {
	token    string
	from, to syntax.UserID
}

type commercialCall struct {
	token       string
	broadcaster syntax.UserID
	length      int
}

// fakeDispatcher answers from scripted tables and delivers synchronously,
// which keeps the tests deterministic. Zero-valued result codes are treated
// as SUCCESS so only failures need scripting.
type fakeDispatcher struct {
	mu sync.Mutex

	ids       map[syntax.Username]syntax.UserID
	lookups   [][]syntax.Username
	lookupErr error

	streams     map[syntax.Username]model.StreamStatus
	streamCode  model.ResultCode
	streamCalls [][]syntax.Username

	followed     []model.StreamStatus
	followedCode model.ResultCode

	channels     map[syntax.Username]model.ChannelInfo
	channelCode  model.ResultCode
	channelCalls []syntax.Username

	updateCode   model.ResultCode
	updateCalls  []model.ChannelInfo
	updateTokens []string

	followerInfo  map[syntax.Username]model.FollowerInfo
	followerCode  model.ResultCode
	followerCalls int

	emotes     []model.Emote
	emoteCalls int

	badges     []model.Badge
	badgeCalls []syntax.Username

	games       []model.Game
	gameCode    model.ResultCode
	searchCalls []string

	tokenInfo   *model.TokenInfo
	verifyCode  model.ResultCode
	verifyCalls int

	followCode    model.ResultCode
	followCalls   []followCall
	unfollowCalls []followCall

	commercialCode  model.ResultCode
	commercialMsg   string
	commercialCalls []commercialCall

	autoModCode  model.ResultCode
	autoModCalls []string

	chatInfo *model.ChatInfo
	chatCode model.ResultCode
}

var _ Dispatcher = (*fakeDispatcher)(nil)

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		ids:      make(map[syntax.Username]syntax.UserID),
		streams:  make(map[syntax.Username]model.StreamStatus),
		channels: make(map[syntax.Username]model.ChannelInfo),
	}
}

func orSuccess(c model.ResultCode) model.ResultCode {
	if c == model.ResultUnknown {
		return model.ResultSuccess
	}
	return c
}

func (f *fakeDispatcher) LookupUsernames(names []syntax.Username, deliver func(map[syntax.Username]syntax.UserID, error)) {
	f.mu.Lock()
	batch := make([]syntax.Username, len(names))
	copy(batch, names)
	f.lookups = append(f.lookups, batch)
	err := f.lookupErr
	found := make(map[syntax.Username]syntax.UserID)
	for _, n := range names {
		if id, ok := f.ids[n]; ok {
			found[n] = id
		}
	}
	f.mu.Unlock()
	if err != nil {
		deliver(nil, err)
		return
	}
	deliver(found, nil)
}

func (f *fakeDispatcher) FetchStreams(streams []syntax.Username, deliver func([]model.StreamStatus, model.ResultCode)) {
	f.mu.Lock()
	batch := make([]syntax.Username, len(streams))
	copy(batch, streams)
	f.streamCalls = append(f.streamCalls, batch)
	var found []model.StreamStatus
	for _, s := range streams {
		if st, ok := f.streams[s]; ok {
			found = append(found, st)
		}
	}
	code := orSuccess(f.streamCode)
	f.mu.Unlock()
	deliver(found, code)
}

func (f *fakeDispatcher) FetchFollowedStreams(token string, deliver func([]model.StreamStatus, model.ResultCode)) {
	f.mu.Lock()
	streams := f.followed
	code := orSuccess(f.followedCode)
	f.mu.Unlock()
	deliver(streams, code)
}

func (f *fakeDispatcher) FetchChannel(channel syntax.Username, deliver func(*model.ChannelInfo, model.ResultCode)) {
	f.mu.Lock()
	f.channelCalls = append(f.channelCalls, channel)
	info, ok := f.channels[channel]
	code := orSuccess(f.channelCode)
	f.mu.Unlock()
	if code.Ok() && !ok {
		deliver(nil, model.ResultNotFound)
		return
	}
	if !code.Ok() {
		deliver(nil, code)
		return
	}
	deliver(&info, code)
}

func (f *fakeDispatcher) UpdateChannel(token string, info model.ChannelInfo, deliver func(model.ResultCode)) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, info)
	f.updateTokens = append(f.updateTokens, token)
	code := orSuccess(f.updateCode)
	f.mu.Unlock()
	deliver(code)
}

func (f *fakeDispatcher) FetchFollowers(ftype model.FollowType, token string, stream syntax.Username, deliver func(*model.FollowerInfo, model.ResultCode)) {
	f.mu.Lock()
	f.followerCalls++
	info, ok := f.followerInfo[stream]
	code := orSuccess(f.followerCode)
	f.mu.Unlock()
	if !code.Ok() || !ok {
		if code.Ok() {
			code = model.ResultNotFound
		}
		deliver(nil, code)
		return
	}
	deliver(&info, code)
}

func (f *fakeDispatcher) FetchEmotes(deliver func([]model.Emote, model.ResultCode)) {
	f.mu.Lock()
	f.emoteCalls++
	emotes := f.emotes
	f.mu.Unlock()
	deliver(emotes, model.ResultSuccess)
}

func (f *fakeDispatcher) FetchBadges(channel syntax.Username, deliver func([]model.Badge, model.ResultCode)) {
	f.mu.Lock()
	f.badgeCalls = append(f.badgeCalls, channel)
	badges := f.badges
	f.mu.Unlock()
	deliver(badges, model.ResultSuccess)
}

func (f *fakeDispatcher) SearchGames(token, query string, deliver func([]model.Game, model.ResultCode)) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	games := f.games
	code := orSuccess(f.gameCode)
	f.mu.Unlock()
	deliver(games, code)
}

func (f *fakeDispatcher) VerifyToken(token string, deliver func(*model.TokenInfo, model.ResultCode)) {
	f.mu.Lock()
	f.verifyCalls++
	info := f.tokenInfo
	code := orSuccess(f.verifyCode)
	f.mu.Unlock()
	deliver(info, code)
}

func (f *fakeDispatcher) Follow(token string, from, to syntax.UserID, deliver func(model.ResultCode)) {
	f.mu.Lock()
	f.followCalls = append(f.followCalls, followCall{token: token, from: from, to: to})
	code := orSuccess(f.followCode)
	f.mu.Unlock()
	deliver(code)
}

func (f *fakeDispatcher) Unfollow(token string, from, to syntax.UserID, deliver func(model.ResultCode)) {
	f.mu.Lock()
	f.unfollowCalls = append(f.unfollowCalls, followCall{token: token, from: from, to: to})
	code := orSuccess(f.followCode)
	f.mu.Unlock()
	deliver(code)
}

func (f *fakeDispatcher) RunCommercial(token string, broadcaster syntax.UserID, length int, deliver func(model.ResultCode, string)) {
	f.mu.Lock()
	f.commercialCalls = append(f.commercialCalls, commercialCall{token: token, broadcaster: broadcaster, length: length})
	code := orSuccess(f.commercialCode)
	msg := f.commercialMsg
	f.mu.Unlock()
	deliver(code, msg)
}

func (f *fakeDispatcher) AutoMod(token string, action AutoModAction, msgID string, deliver func(model.ResultCode)) {
	f.mu.Lock()
	f.autoModCalls = append(f.autoModCalls, msgID)
	code := orSuccess(f.autoModCode)
	f.mu.Unlock()
	deliver(code)
}

func (f *fakeDispatcher) FetchChatInfo(stream syntax.Username, deliver func(*model.ChatInfo, model.ResultCode)) {
	f.mu.Lock()
	info := f.chatInfo
	code := orSuccess(f.chatCode)
	f.mu.Unlock()
	deliver(info, code)
}

func (f *fakeDispatcher) verifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

func TestFollowChannelTargetNotFound(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.ids["me"] = "100"

	var messages []string
	a := New(f, &Listeners{
		FollowResult: func(m string) { messages = append(messages, m) },
	}, nil)

	a.FollowChannel("me", "streamer")

	// resolution failed, so no follow call went out and the message
	// names the target and the cause
	require.Len(messages, 1)
	assert.Contains(messages[0], "streamer")
	assert.Contains(messages[0], "not found")
	assert.Empty(f.followCalls)
}

func TestFollowChannelSuccess(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.ids["me"] = "100"
	f.ids["streamer"] = "200"

	var messages []string
	a := New(f, &Listeners{
		FollowResult: func(m string) { messages = append(messages, m) },
	}, nil)
	a.SetToken("tok")

	a.FollowChannel("Me", "Streamer")

	require.Len(f.followCalls, 1)
	assert.Equal(followCall{token: "tok", from: "100", to: "200"}, f.followCalls[0])
	require.Len(messages, 1)
	assert.Equal("Now following 'Streamer'", messages[0])
}

func TestUnfollowChannel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.ids["me"] = "100"
	f.ids["streamer"] = "200"

	var messages []string
	a := New(f, &Listeners{
		FollowResult: func(m string) { messages = append(messages, m) },
	}, nil)

	a.UnfollowChannel("me", "streamer")

	require.Len(f.unfollowCalls, 1)
	assert.Empty(f.followCalls)
	require.Len(messages, 1)
	assert.Contains(messages[0], "No longer following")
}

func TestFollowFailureCodeInMessage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.ids["me"] = "100"
	f.ids["streamer"] = "200"
	f.followCode = model.ResultFailed

	var messages []string
	a := New(f, &Listeners{
		FollowResult: func(m string) { messages = append(messages, m) },
	}, nil)

	a.FollowChannel("me", "streamer")

	require.Len(messages, 1)
	assert.Contains(messages[0], "streamer")
	assert.Contains(messages[0], "FAILED")
}

func TestAccessDeniedPropagation(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.followerCode = model.ResultAccessDenied

	var denied int
	var codes []model.ResultCode
	a := New(f, &Listeners{
		AccessDenied: func() { denied++ },
		FollowersReceived: func(ftype model.FollowType, info *model.FollowerInfo, code model.ResultCode) {
			assert.Nil(info)
			codes = append(codes, code)
		},
	}, nil)

	a.RequestFollowers("mychan")

	assert.Equal(1, denied)
	assert.Equal([]model.ResultCode{model.ResultAccessDenied}, codes)
}

func TestVerifyTokenSeedsResolver(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.tokenInfo = &model.TokenInfo{Login: "me", UserID: "100", Valid: true, Scopes: []string{"chat:read"}}

	var verified []*model.TokenInfo
	a := New(f, &Listeners{
		TokenVerified: func(token string, info *model.TokenInfo) {
			assert.Equal("tok", token)
			verified = append(verified, info)
		},
	}, nil)
	a.SetToken("tok")

	a.VerifyToken()

	require.Len(verified, 1)
	require.NotNil(verified[0])
	assert.True(verified[0].HasScope("chat:read"))

	// our own account id is now available without a lookup
	id, ok := a.CachedUserID("me")
	assert.True(ok)
	assert.Equal(syntax.UserID("100"), id)
	assert.Empty(f.lookups)
}

func TestCheckTokenThrottled(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.tokenInfo = &model.TokenInfo{Login: "me", UserID: "100", Valid: true}
	clk := newFakeClock()
	a := New(f, nil, nil)
	a.tokenCheck.now = clk.Now

	a.CheckToken()
	assert.Equal(1, f.verifyCount())

	clk.Advance(599 * time.Second)
	a.CheckToken()
	assert.Equal(1, f.verifyCount())

	clk.Advance(2 * time.Second)
	a.CheckToken()
	assert.Equal(2, f.verifyCount())
}

func TestManualVerifyResetsCheckWindow(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.tokenInfo = &model.TokenInfo{Login: "me", UserID: "100", Valid: true}
	clk := newFakeClock()
	a := New(f, nil, nil)
	a.tokenCheck.now = clk.Now

	a.CheckToken()
	assert.Equal(1, f.verifyCount())

	clk.Advance(300 * time.Second)
	a.VerifyToken()
	assert.Equal(2, f.verifyCount())

	// 601s after the automatic check but only 301s after the manual one
	clk.Advance(301 * time.Second)
	a.CheckToken()
	assert.Equal(2, f.verifyCount())

	clk.Advance(299 * time.Second)
	a.CheckToken()
	assert.Equal(3, f.verifyCount())
}

func TestStreamBatchRidesOpenSet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.streams["alpha"] = model.StreamStatus{Channel: "alpha", Live: true, Title: "hi", Viewers: 12}
	f.streams["bravo"] = model.StreamStatus{Channel: "bravo", Live: true}

	var updates []model.StreamStatus
	a := New(f, &Listeners{
		StreamUpdated: func(st model.StreamStatus) { updates = append(updates, st) },
	}, nil)

	e := a.GetStreamInfo("alpha", []syntax.Username{"bravo", "charlie"})
	assert.Equal(infocache.StateUnfetched, e.State)

	// one network call covered the requested channel and both riders
	require.Len(f.streamCalls, 1)
	assert.ElementsMatch([]syntax.Username{"alpha", "bravo", "charlie"}, f.streamCalls[0])
	assert.Len(updates, 3)

	got := a.GetOnlyCachedStreamInfo("alpha")
	assert.Equal(infocache.StateValid, got.State)
	assert.True(got.Value.Live)
	assert.Equal("hi", got.Value.Title)

	// the channel missing from the response is cached as offline
	off := a.GetOnlyCachedStreamInfo("charlie")
	assert.Equal(infocache.StateValid, off.State)
	assert.False(off.Value.Live)

	// everything fresh now: another read costs nothing
	e = a.GetStreamInfo("bravo", []syntax.Username{"alpha", "charlie"})
	assert.Equal(infocache.StateValid, e.State)
	assert.Len(f.streamCalls, 1)
}

func TestGetFollowedStreams(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.followed = []model.StreamStatus{
		{Channel: "alpha", Live: true},
		{Channel: "bravo", Live: true},
	}

	var got []model.StreamStatus
	a := New(f, &Listeners{
		FollowedStreams: func(streams []model.StreamStatus, code model.ResultCode) {
			assert.True(code.Ok())
			got = streams
		},
	}, nil)

	a.GetFollowedStreams()

	require.Len(got, 2)
	e := a.GetOnlyCachedStreamInfo("alpha")
	assert.Equal(infocache.StateValid, e.State)
	assert.True(e.Value.Live)
}

func TestChannelInfoFlow(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.channels["mychan"] = model.ChannelInfo{Channel: "mychan", Title: "old title", Game: "Tetris"}

	var received []*model.ChannelInfo
	a := New(f, &Listeners{
		ChannelInfoReceived: func(code model.ResultCode, info *model.ChannelInfo) {
			received = append(received, info)
		},
	}, nil)

	e := a.GetCachedChannelInfo("MyChan")
	assert.Equal(infocache.StateUnfetched, e.State)
	require.Len(received, 1)
	assert.Equal("old title", received[0].Title)

	e = a.GetCachedChannelInfo("mychan")
	assert.Equal(infocache.StateValid, e.State)
	assert.Equal("Tetris", e.Value.Game)
	assert.Len(f.channelCalls, 1)
}

func TestChannelInfoNotFoundKeepsUnfetched(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()

	var codes []model.ResultCode
	a := New(f, &Listeners{
		ChannelInfoReceived: func(code model.ResultCode, info *model.ChannelInfo) {
			assert.Nil(info)
			codes = append(codes, code)
		},
	}, nil)

	a.GetCachedChannelInfo("ghost")
	assert.Equal([]model.ResultCode{model.ResultNotFound}, codes)

	e := a.GetOnlyCachedChannelInfo("ghost")
	assert.Equal(infocache.StateUnfetched, e.State)
}

func TestPutChannelInfo(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()

	var posted []model.ResultCode
	a := New(f, &Listeners{
		ChannelInfoPosted: func(code model.ResultCode) { posted = append(posted, code) },
	}, nil)
	a.SetToken("tok")

	a.PutChannelInfo(model.ChannelInfo{Channel: "MyChan", Title: "new title", Game: "Pinball"})

	require.Len(f.updateCalls, 1)
	assert.Equal(syntax.Username("mychan"), f.updateCalls[0].Channel)
	assert.Equal([]string{"tok"}, f.updateTokens)
	assert.Equal([]model.ResultCode{model.ResultSuccess}, posted)

	// the successful write is the freshest data we have
	e := a.GetOnlyCachedChannelInfo("mychan")
	assert.Equal(infocache.StateValid, e.State)
	assert.Equal("new title", e.Value.Title)
}

func TestFollowersServedFromCache(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.followerInfo = map[syntax.Username]model.FollowerInfo{
		"mychan": {Stream: "mychan", Total: 42},
	}

	var totals []int
	a := New(f, &Listeners{
		FollowersReceived: func(ftype model.FollowType, info *model.FollowerInfo, code model.ResultCode) {
			assert.Equal(model.FollowTypeFollower, ftype)
			totals = append(totals, info.Total)
		},
	}, nil)

	a.RequestFollowers("mychan")
	a.RequestFollowers("mychan")

	// second request was answered from cache
	assert.Equal([]int{42, 42}, totals)
	assert.Equal(1, f.followerCalls)
}

func TestGameSearchCaching(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.games = []model.Game{{ID: "509538", Name: "The Legend of Zelda"}}

	var results [][]model.Game
	a := New(f, &Listeners{
		GameSearchResult: func(query string, games []model.Game) {
			assert.Equal("zelda", query)
			results = append(results, games)
		},
	}, nil)

	a.SearchGames("Zelda")
	a.SearchGames("  zelda ")

	assert.Len(results, 2)
	assert.Equal([]string{"zelda"}, f.searchCalls)
}

func TestEmoteRequests(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.emotes = []model.Emote{{ID: "25", Code: "Kappa"}}

	var received int
	a := New(f, &Listeners{
		EmotesReceived: func(emotes []model.Emote) { received++ },
	}, nil)

	a.RequestEmotes(false)
	a.RequestEmotes(false)
	assert.Equal(1, f.emoteCalls)
	assert.Equal(2, received)

	a.RequestEmotes(true)
	assert.Equal(2, f.emoteCalls)
	assert.Equal(3, received)
}

func TestBadgeRequests(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.badges = []model.Badge{{SetID: "moderator", Version: "1"}}

	var channels []syntax.Username
	a := New(f, &Listeners{
		BadgesReceived: func(channel syntax.Username, badges []model.Badge) {
			channels = append(channels, channel)
		},
	}, nil)

	a.RequestBadges("MyChan", false)
	a.RequestBadges("mychan", false)
	assert.Equal([]syntax.Username{"mychan"}, f.badgeCalls)
	assert.Equal([]syntax.Username{"mychan", "mychan"}, channels)
}

func TestRunCommercial(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()
	f.ids["mychan"] = "300"
	f.commercialMsg = "Starting commercial break"

	var messages []string
	var codes []model.ResultCode
	a := New(f, &Listeners{
		CommercialResult: func(stream syntax.Username, message string, code model.ResultCode) {
			messages = append(messages, message)
			codes = append(codes, code)
		},
	}, nil)
	a.SetToken("tok")

	a.RunCommercial("mychan", 30)

	require.Len(f.commercialCalls, 1)
	assert.Equal(commercialCall{token: "tok", broadcaster: "300", length: 30}, f.commercialCalls[0])
	assert.Equal([]model.ResultCode{model.ResultSuccess}, codes)
	assert.Equal([]string{"Starting commercial break"}, messages)
}

func TestRunCommercialUnresolvedChannel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFakeDispatcher()

	var messages []string
	var codes []model.ResultCode
	a := New(f, &Listeners{
		CommercialResult: func(stream syntax.Username, message string, code model.ResultCode) {
			messages = append(messages, message)
			codes = append(codes, code)
		},
	}, nil)

	a.RunCommercial("ghost", 30)

	assert.Empty(f.commercialCalls)
	require.Len(messages, 1)
	assert.Contains(messages[0], "ghost")
	assert.Equal([]model.ResultCode{model.ResultInvalidChannel}, codes)
}

func TestAutoMod(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()

	var results []model.ResultCode
	a := New(f, &Listeners{
		AutoModResult: func(action AutoModAction, msgID string, code model.ResultCode) {
			assert.Equal(AutoModApprove, action)
			assert.Equal("msg-1", msgID)
			results = append(results, code)
		},
	}, nil)

	a.AutoMod(AutoModApprove, "msg-1")

	assert.Equal([]string{"msg-1"}, f.autoModCalls)
	assert.Equal([]model.ResultCode{model.ResultSuccess}, results)
}

func TestRequestChatInfo(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.chatInfo = &model.ChatInfo{Channel: "mychan", SlowMode: true}

	var infos []*model.ChatInfo
	a := New(f, &Listeners{
		ChatInfoReceived: func(info *model.ChatInfo, code model.ResultCode) {
			infos = append(infos, info)
		},
	}, nil)

	a.RequestChatInfo("mychan")

	assert.Len(infos, 1)
	assert.True(infos[0].SlowMode)
}

func TestNilListenersIgnored(t *testing.T) {
	f := newFakeDispatcher()
	f.ids["me"] = "100"
	f.ids["streamer"] = "200"
	f.tokenInfo = &model.TokenInfo{Login: "me", UserID: "100", Valid: true}

	// nothing here should panic with no listeners registered
	a := New(f, nil, nil)
	a.VerifyToken()
	a.FollowChannel("me", "streamer")
	a.GetStreamInfo("alpha", nil)
	a.RequestEmotes(false)
	a.SearchGames("zelda")
}

func TestUserIDPassthrough(t *testing.T) {
	assert := assert.New(t)
	f := newFakeDispatcher()
	f.ids["alice"] = "1001"

	a := New(f, nil, nil)

	var ids []syntax.UserID
	a.GetUserIDs(func(res *identity.Result) {
		id, err := res.ID("alice")
		assert.NoError(err)
		ids = append(ids, id)
	}, "alice")
	assert.Equal([]syntax.UserID{"1001"}, ids)

	a.SetUserID("bob", "1002")
	id, ok := a.CachedUserID("bob")
	assert.True(ok)
	assert.Equal(syntax.UserID("1002"), id)
}
