package helix

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type relationData struct {
	UserLogin  string    `json:"user_login"`
	FollowedAt time.Time `json:"followed_at"`
}

type relationResponse struct {
	Total int            `json:"total"`
	Data  []relationData `json:"data"`
}

// FetchFollowers fetches one page of a channel's follower or subscriber
// relation plus the relation's total size. Subscriber data needs the
// broadcaster's own token.
func (c *Client) FetchFollowers(ftype model.FollowType, token string, stream syntax.Username, deliver func(*model.FollowerInfo, model.ResultCode)) {
	go func() {
		ctx := context.Background()
		stream = stream.Normalize()
		id, code := c.resolveLogin(ctx, stream)
		if !code.Ok() {
			deliver(nil, code)
			return
		}

		path, endpoint := "/channels/followers", "followers"
		if ftype == model.FollowTypeSubscriber {
			path, endpoint = "/subscriptions", "subscriptions"
		}
		params := url.Values{}
		params.Set("broadcaster_id", id.String())
		params.Set("first", "100")

		var out relationResponse
		status, err := c.do(ctx, http.MethodGet, endpoint, c.apiURL(path, params), token, nil, &out)
		if err != nil {
			c.logger().Warn("relation fetch failed", "type", ftype, "stream", stream, "err", err)
			deliver(nil, model.ResultFailed)
			return
		}
		if code := statusToCode(status); !code.Ok() {
			deliver(nil, code)
			return
		}
		info := &model.FollowerInfo{Stream: stream, Total: out.Total}
		for _, d := range out.Data {
			info.Followers = append(info.Followers, model.Follower{
				Name:       syntax.Username(d.UserLogin).Normalize(),
				FollowedAt: d.FollowedAt,
			})
		}
		deliver(info, model.ResultSuccess)
	}()
}

type followBody struct {
	FromID syntax.UserID `json:"from_id"`
	ToID   syntax.UserID `json:"to_id"`
}

// Follow makes the from account follow the to account.
func (c *Client) Follow(token string, from, to syntax.UserID, deliver func(model.ResultCode)) {
	go func() {
		status, err := c.do(context.Background(), http.MethodPost, "follows", c.apiURL("/users/follows", nil), token, followBody{FromID: from, ToID: to}, nil)
		if err != nil {
			c.logger().Warn("follow failed", "err", err)
			deliver(model.ResultFailed)
			return
		}
		deliver(statusToCode(status))
	}()
}

// Unfollow removes the from account's follow of the to account.
func (c *Client) Unfollow(token string, from, to syntax.UserID, deliver func(model.ResultCode)) {
	go func() {
		params := url.Values{}
		params.Set("from_id", from.String())
		params.Set("to_id", to.String())
		status, err := c.do(context.Background(), http.MethodDelete, "follows", c.apiURL("/users/follows", params), token, nil, nil)
		if err != nil {
			c.logger().Warn("unfollow failed", "err", err)
			deliver(model.ResultFailed)
			return
		}
		deliver(statusToCode(status))
	}()
}
