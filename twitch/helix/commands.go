package helix

import (
	"context"
	"net/http"
	"net/url"

	"github.com/glimmerchat/amethyst/twitch/api"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type gameData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

type gamesResponse struct {
	Data []gameData `json:"data"`
}

// SearchGames runs a category search for the query.
func (c *Client) SearchGames(token, query string, deliver func([]model.Game, model.ResultCode)) {
	go func() {
		params := url.Values{}
		params.Set("query", query)
		params.Set("first", "20")
		var out gamesResponse
		status, err := c.do(context.Background(), http.MethodGet, "search_categories", c.apiURL("/search/categories", params), token, nil, &out)
		if err != nil {
			c.logger().Warn("game search failed", "query", query, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		games := make([]model.Game, 0, len(out.Data))
		for _, d := range out.Data {
			games = append(games, model.Game{ID: d.ID, Name: d.Name, BoxArtURL: d.BoxArtURL})
		}
		deliver(games, model.ResultSuccess)
	}()
}

type commercialBody struct {
	BroadcasterID syntax.UserID `json:"broadcaster_id"`
	Length        int           `json:"length"`
}

type commercialData struct {
	Length     int    `json:"length"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type commercialResponse struct {
	Data []commercialData `json:"data"`
}

// RunCommercial starts an ad break on the broadcaster's channel. The
// platform rejects the request while a commercial is already running or the
// channel is not live; those map onto their own result codes.
func (c *Client) RunCommercial(token string, broadcaster syntax.UserID, length int, deliver func(model.ResultCode, string)) {
	go func() {
		var out commercialResponse
		status, err := c.do(context.Background(), http.MethodPost, "commercial", c.apiURL("/channels/commercial", nil), token, commercialBody{BroadcasterID: broadcaster, Length: length}, &out)
		if err != nil {
			c.logger().Warn("commercial request failed", "err", err)
			deliver(model.ResultFailed, "")
			return
		}
		switch status {
		case http.StatusTooManyRequests:
			deliver(model.ResultRunningCommercial, "Commercial already running or on cooldown")
			return
		case http.StatusBadRequest:
			deliver(model.ResultInvalidStreamStatus, "Stream is not live")
			return
		case http.StatusNotFound:
			deliver(model.ResultInvalidChannel, "")
			return
		}
		code := statusToCode(status)
		msg := ""
		if len(out.Data) > 0 {
			msg = out.Data[0].Message
		}
		if code.Ok() && msg == "" {
			msg = "Commercial started"
		}
		deliver(code, msg)
	}()
}

type autoModBody struct {
	UserID syntax.UserID `json:"user_id"`
	MsgID  string        `json:"msg_id"`
	Action string        `json:"action"`
}

// AutoMod approves or denies a message held back by AutoMod. The moderating
// account is the token's own.
func (c *Client) AutoMod(token string, action api.AutoModAction, msgID string, deliver func(model.ResultCode)) {
	go func() {
		ctx := context.Background()
		ownID, code := c.ensureOwnID(ctx, token)
		if !code.Ok() {
			deliver(code)
			return
		}
		body := autoModBody{UserID: ownID, MsgID: msgID, Action: string(action)}
		status, err := c.do(ctx, http.MethodPost, "automod", c.apiURL("/moderation/automod/message", nil), token, body, nil)
		if err != nil {
			c.logger().Warn("automod action failed", "action", action, "err", err)
			deliver(model.ResultFailed)
			return
		}
		deliver(statusToCode(status))
	}()
}
