package api

import (
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// Listeners receives application-level notifications from the API. Any field
// may be left nil to ignore that event; a nil *Listeners ignores everything.
// Callbacks run on whatever goroutine delivered the underlying network
// response (or inline when no network round-trip was needed) and should hand
// heavy work off rather than block it.
type Listeners struct {
	// AccessDenied fires whenever an authenticated call is rejected for
	// authorization reasons. The API never retries on its own; the usual
	// reaction is to re-verify the token.
	AccessDenied func()

	// TokenVerified reports the outcome of a token verification, manual
	// or automatic. info is nil when the verification call itself failed.
	TokenVerified func(token string, info *model.TokenInfo)

	// StreamUpdated fires once per channel whenever fresh live status
	// arrives, including "went offline" updates.
	StreamUpdated func(status model.StreamStatus)

	// FollowedStreams reports the result of a followed-streams request.
	FollowedStreams func(streams []model.StreamStatus, code model.ResultCode)

	// ChannelInfoReceived reports fetched channel metadata; info is nil
	// unless code is SUCCESS.
	ChannelInfoReceived func(code model.ResultCode, info *model.ChannelInfo)

	// ChannelInfoPosted reports the outcome of a channel metadata write.
	ChannelInfoPosted func(code model.ResultCode)

	// FollowResult carries a display message for a follow or unfollow
	// attempt, including failures to resolve the target.
	FollowResult func(message string)

	// FollowersReceived reports follower or subscriber data for a stream;
	// info is nil unless code is SUCCESS.
	FollowersReceived func(ftype model.FollowType, info *model.FollowerInfo, code model.ResultCode)

	// EmotesReceived and BadgesReceived deliver refreshed chat assets.
	EmotesReceived func(emotes []model.Emote)
	BadgesReceived func(channel syntax.Username, badges []model.Badge)

	// GameSearchResult delivers category search results, possibly from
	// the query cache.
	GameSearchResult func(query string, games []model.Game)

	// CommercialResult reports the outcome of an ad break request.
	CommercialResult func(stream syntax.Username, message string, code model.ResultCode)

	// AutoModResult reports the outcome of an AutoMod approve/deny.
	AutoModResult func(action AutoModAction, msgID string, code model.ResultCode)

	// ChatInfoReceived reports fetched chat settings; info is nil unless
	// code is SUCCESS.
	ChatInfoReceived func(info *model.ChatInfo, code model.ResultCode)
}

func (l *Listeners) accessDenied() {
	if l == nil || l.AccessDenied == nil {
		return
	}
	l.AccessDenied()
}

func (l *Listeners) tokenVerified(token string, info *model.TokenInfo) {
	if l == nil || l.TokenVerified == nil {
		return
	}
	l.TokenVerified(token, info)
}

func (l *Listeners) streamUpdated(status model.StreamStatus) {
	if l == nil || l.StreamUpdated == nil {
		return
	}
	l.StreamUpdated(status)
}

func (l *Listeners) followedStreams(streams []model.StreamStatus, code model.ResultCode) {
	if l == nil || l.FollowedStreams == nil {
		return
	}
	l.FollowedStreams(streams, code)
}

func (l *Listeners) channelInfoReceived(code model.ResultCode, info *model.ChannelInfo) {
	if l == nil || l.ChannelInfoReceived == nil {
		return
	}
	l.ChannelInfoReceived(code, info)
}

func (l *Listeners) channelInfoPosted(code model.ResultCode) {
	if l == nil || l.ChannelInfoPosted == nil {
		return
	}
	l.ChannelInfoPosted(code)
}

func (l *Listeners) followResult(message string) {
	if l == nil || l.FollowResult == nil {
		return
	}
	l.FollowResult(message)
}

func (l *Listeners) followersReceived(ftype model.FollowType, info *model.FollowerInfo, code model.ResultCode) {
	if l == nil || l.FollowersReceived == nil {
		return
	}
	l.FollowersReceived(ftype, info, code)
}

func (l *Listeners) emotesReceived(emotes []model.Emote) {
	if l == nil || l.EmotesReceived == nil {
		return
	}
	l.EmotesReceived(emotes)
}

func (l *Listeners) badgesReceived(channel syntax.Username, badges []model.Badge) {
	if l == nil || l.BadgesReceived == nil {
		return
	}
	l.BadgesReceived(channel, badges)
}

func (l *Listeners) gameSearchResult(query string, games []model.Game) {
	if l == nil || l.GameSearchResult == nil {
		return
	}
	l.GameSearchResult(query, games)
}

func (l *Listeners) commercialResult(stream syntax.Username, message string, code model.ResultCode) {
	if l == nil || l.CommercialResult == nil {
		return
	}
	l.CommercialResult(stream, message, code)
}

func (l *Listeners) autoModResult(action AutoModAction, msgID string, code model.ResultCode) {
	if l == nil || l.AutoModResult == nil {
		return
	}
	l.AutoModResult(action, msgID, code)
}

func (l *Listeners) chatInfoReceived(info *model.ChatInfo, code model.ResultCode) {
	if l == nil || l.ChatInfoReceived == nil {
		return
	}
	l.ChatInfoReceived(info, code)
}
