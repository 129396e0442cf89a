package helix

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type streamData struct {
	UserLogin   string    `json:"user_login"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	GameID      string    `json:"game_id"`
	GameName    string    `json:"game_name"`
	ViewerCount int       `json:"viewer_count"`
	StartedAt   time.Time `json:"started_at"`
}

func (d streamData) status() model.StreamStatus {
	return model.StreamStatus{
		Channel:   syntax.Username(d.UserLogin).Normalize(),
		Live:      d.Type == "live",
		Title:     d.Title,
		Game:      d.GameName,
		GameID:    d.GameID,
		Viewers:   d.ViewerCount,
		StartedAt: d.StartedAt,
	}
}

type streamsResponse struct {
	Data []streamData `json:"data"`
}

// FetchStreams fetches live status for up to a hundred channels in one
// request. Channels absent from the delivered slice are offline.
func (c *Client) FetchStreams(streams []syntax.Username, deliver func([]model.StreamStatus, model.ResultCode)) {
	go func() {
		params := url.Values{}
		for _, s := range streams {
			params.Add("user_login", s.Normalize().String())
		}
		params.Set("first", "100")

		var out streamsResponse
		status, err := c.do(context.Background(), http.MethodGet, "streams", c.apiURL("/streams", params), "", nil, &out)
		if err != nil {
			c.logger().Warn("stream status fetch failed", "streams", len(streams), "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		found := make([]model.StreamStatus, 0, len(out.Data))
		for _, d := range out.Data {
			found = append(found, d.status())
		}
		deliver(found, model.ResultSuccess)
	}()
}

// FetchFollowedStreams fetches the live streams followed by the token's
// account.
func (c *Client) FetchFollowedStreams(token string, deliver func([]model.StreamStatus, model.ResultCode)) {
	go func() {
		ctx := context.Background()
		ownID, code := c.ensureOwnID(ctx, token)
		if !code.Ok() {
			deliver(nil, code)
			return
		}
		params := url.Values{}
		params.Set("user_id", ownID.String())
		params.Set("first", "100")

		var out streamsResponse
		status, err := c.do(ctx, http.MethodGet, "streams_followed", c.apiURL("/streams/followed", params), token, nil, &out)
		if err != nil {
			c.logger().Warn("followed streams fetch failed", "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		found := make([]model.StreamStatus, 0, len(out.Data))
		for _, d := range out.Data {
			found = append(found, d.status())
		}
		deliver(found, model.ResultSuccess)
	}()
}
