package helix

import (
	"context"
	"net/http"
	"net/url"

	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type emoteData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EmoteSetID string `json:"emote_set_id"`
}

type emotesResponse struct {
	Data []emoteData `json:"data"`
}

// FetchEmotes fetches the global emoticon set.
func (c *Client) FetchEmotes(deliver func([]model.Emote, model.ResultCode)) {
	go func() {
		var out emotesResponse
		status, err := c.do(context.Background(), http.MethodGet, "emotes", c.apiURL("/chat/emotes/global", nil), "", nil, &out)
		if err != nil {
			c.logger().Warn("emote fetch failed", "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		emotes := make([]model.Emote, 0, len(out.Data))
		for _, d := range out.Data {
			emotes = append(emotes, model.Emote{ID: d.ID, Code: d.Name, SetID: d.EmoteSetID})
		}
		deliver(emotes, model.ResultSuccess)
	}()
}

type badgeVersion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url_2x"`
}

type badgeSet struct {
	SetID    string         `json:"set_id"`
	Versions []badgeVersion `json:"versions"`
}

type badgesResponse struct {
	Data []badgeSet `json:"data"`
}

func flattenBadges(dst []model.Badge, sets []badgeSet) []model.Badge {
	for _, set := range sets {
		for _, v := range set.Versions {
			dst = append(dst, model.Badge{
				SetID:    set.SetID,
				Version:  v.ID,
				Title:    v.Title,
				ImageURL: v.ImageURL,
			})
		}
	}
	return dst
}

// FetchBadges fetches the badges usable in a channel: the global set plus
// the channel's own, room badges last so they win on display.
func (c *Client) FetchBadges(channel syntax.Username, deliver func([]model.Badge, model.ResultCode)) {
	go func() {
		ctx := context.Background()
		channel = channel.Normalize()

		var global badgesResponse
		status, err := c.do(ctx, http.MethodGet, "badges_global", c.apiURL("/chat/badges/global", nil), "", nil, &global)
		if err != nil {
			c.logger().Warn("badge fetch failed", "channel", channel, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}

		id, code := c.resolveLogin(ctx, channel)
		if !code.Ok() {
			deliver(nil, code)
			return
		}
		params := url.Values{}
		params.Set("broadcaster_id", id.String())
		var room badgesResponse
		status, err = c.do(ctx, http.MethodGet, "badges", c.apiURL("/chat/badges", params), "", nil, &room)
		if err != nil {
			c.logger().Warn("badge fetch failed", "channel", channel, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}

		badges := flattenBadges(nil, global.Data)
		badges = flattenBadges(badges, room.Data)
		deliver(badges, model.ResultSuccess)
	}()
}
