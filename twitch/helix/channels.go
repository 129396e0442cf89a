package helix

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type channelData struct {
	BroadcasterLogin string `json:"broadcaster_login"`
	Title            string `json:"title"`
	GameID           string `json:"game_id"`
	GameName         string `json:"game_name"`
}

type channelsResponse struct {
	Data []channelData `json:"data"`
}

// FetchChannel fetches editable channel metadata. The endpoint is keyed by
// broadcaster id, so the login is resolved first; account-level fields come
// from the same user lookup.
func (c *Client) FetchChannel(channel syntax.Username, deliver func(*model.ChannelInfo, model.ResultCode)) {
	go func() {
		ctx := context.Background()
		channel = channel.Normalize()

		params := url.Values{}
		params.Add("login", channel.String())
		var users usersResponse
		status, err := c.do(ctx, http.MethodGet, "users", c.apiURL("/users", params), "", nil, &users)
		if err != nil {
			c.logger().Warn("channel info fetch failed", "channel", channel, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		if len(users.Data) == 0 {
			deliver(nil, model.ResultNotFound)
			return
		}
		user := users.Data[0]

		params = url.Values{}
		params.Set("broadcaster_id", user.ID)
		var channels channelsResponse
		status, err = c.do(ctx, http.MethodGet, "channels", c.apiURL("/channels", params), "", nil, &channels)
		if err != nil {
			c.logger().Warn("channel info fetch failed", "channel", channel, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		if len(channels.Data) == 0 {
			deliver(nil, model.ResultNotFound)
			return
		}
		ch := channels.Data[0]
		deliver(&model.ChannelInfo{
			Channel:   channel,
			Title:     ch.Title,
			Game:      ch.GameName,
			Views:     user.ViewCount,
			CreatedAt: user.CreatedAt,
		}, model.ResultSuccess)
	}()
}

type channelUpdate struct {
	Title string `json:"title"`
	Game  string `json:"game,omitempty"`
}

// UpdateChannel writes title and game back to the channel.
func (c *Client) UpdateChannel(token string, info model.ChannelInfo, deliver func(model.ResultCode)) {
	go func() {
		ctx := context.Background()
		id, code := c.resolveLogin(ctx, info.Channel)
		if !code.Ok() {
			if code == model.ResultNotFound {
				code = model.ResultInvalidChannel
			}
			deliver(code)
			return
		}
		params := url.Values{}
		params.Set("broadcaster_id", id.String())
		status, err := c.do(ctx, http.MethodPatch, "channels_update", c.apiURL("/channels", params), token, channelUpdate{Title: info.Title, Game: info.Game}, nil)
		if err != nil {
			c.logger().Warn("channel update failed", "channel", info.Channel, "err", err)
			deliver(model.ResultFailed)
			return
		}
		deliver(statusToCode(status))
	}()
}

type chatSettingsData struct {
	EmoteMode        bool `json:"emote_mode"`
	FollowerMode     bool `json:"follower_mode"`
	SubscriberMode   bool `json:"subscriber_mode"`
	UniqueChatMode   bool `json:"unique_chat_mode"`
	SlowMode         bool `json:"slow_mode"`
	SlowModeWaitTime int  `json:"slow_mode_wait_time"`
}

type chatSettingsResponse struct {
	Data []chatSettingsData `json:"data"`
}

// FetchChatInfo fetches a channel's chat room settings.
func (c *Client) FetchChatInfo(stream syntax.Username, deliver func(*model.ChatInfo, model.ResultCode)) {
	go func() {
		ctx := context.Background()
		stream = stream.Normalize()
		id, code := c.resolveLogin(ctx, stream)
		if !code.Ok() {
			deliver(nil, code)
			return
		}
		params := url.Values{}
		params.Set("broadcaster_id", id.String())
		var out chatSettingsResponse
		status, err := c.do(ctx, http.MethodGet, "chat_settings", c.apiURL("/chat/settings", params), "", nil, &out)
		if err != nil {
			c.logger().Warn("chat settings fetch failed", "stream", stream, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		if len(out.Data) == 0 {
			deliver(nil, model.ResultNotFound)
			return
		}
		d := out.Data[0]
		deliver(&model.ChatInfo{
			Channel:          stream,
			EmoteOnly:        d.EmoteMode,
			FollowersOnly:    d.FollowerMode,
			SubscribersOnly:  d.SubscriberMode,
			UniqueChat:       d.UniqueChatMode,
			SlowMode:         d.SlowMode,
			SlowModeWaitTime: time.Duration(d.SlowModeWaitTime) * time.Second,
		}, model.ResultSuccess)
	}()
}
