package api

import (
	"github.com/glimmerchat/amethyst/twitch/identity"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// AutoModAction is a moderation decision on a message held by AutoMod.
type AutoModAction string

const (
	AutoModApprove AutoModAction = "approve"
	AutoModDeny    AutoModAction = "deny"
)

// Dispatcher performs the actual network calls against the platform. The
// coordination layer never looks inside it: every method must return without
// blocking and invoke its deliver callback exactly once, from any goroutine,
// carrying a result code and whatever payload the call produced. Token
// parameters carry the credential for authenticated calls; the dispatcher
// does not hold the token itself.
//
// The embedded identity.Source covers username→id lookups; see the helix
// package for the reference HTTP implementation.
type Dispatcher interface {
	identity.Source

	// FetchStreams fetches live status for a batch of channels. Channels
	// absent from the delivered slice are offline, not missing.
	FetchStreams(streams []syntax.Username, deliver func(found []model.StreamStatus, code model.ResultCode))

	// FetchFollowedStreams fetches the live streams followed by the
	// token's account.
	FetchFollowedStreams(token string, deliver func(streams []model.StreamStatus, code model.ResultCode))

	// FetchChannel fetches editable channel metadata.
	FetchChannel(channel syntax.Username, deliver func(info *model.ChannelInfo, code model.ResultCode))

	// UpdateChannel writes title/game back to the channel.
	UpdateChannel(token string, info model.ChannelInfo, deliver func(code model.ResultCode))

	// FetchFollowers fetches one page of a channel's follower or
	// subscriber relation; the subscriber variant is authenticated.
	FetchFollowers(ftype model.FollowType, token string, stream syntax.Username, deliver func(info *model.FollowerInfo, code model.ResultCode))

	// FetchEmotes fetches the global emoticon set.
	FetchEmotes(deliver func(emotes []model.Emote, code model.ResultCode))

	// FetchBadges fetches the badges usable in a channel, global and
	// room-scoped merged.
	FetchBadges(channel syntax.Username, deliver func(badges []model.Badge, code model.ResultCode))

	// SearchGames runs a category search for the query.
	SearchGames(token, query string, deliver func(games []model.Game, code model.ResultCode))

	// VerifyToken validates the token and reports the account it was
	// issued for.
	VerifyToken(token string, deliver func(info *model.TokenInfo, code model.ResultCode))

	// Follow and Unfollow change the follow relation between two resolved
	// accounts.
	Follow(token string, from, to syntax.UserID, deliver func(code model.ResultCode))
	Unfollow(token string, from, to syntax.UserID, deliver func(code model.ResultCode))

	// RunCommercial starts an ad break of the given length in seconds on
	// the broadcaster's channel.
	RunCommercial(token string, broadcaster syntax.UserID, length int, deliver func(code model.ResultCode, message string))

	// AutoMod approves or denies a message held back by AutoMod.
	AutoMod(token string, action AutoModAction, msgID string, deliver func(code model.ResultCode))

	// FetchChatInfo fetches a channel's chat room settings.
	FetchChatInfo(stream syntax.Username, deliver func(info *model.ChatInfo, code model.ResultCode))
}
