package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glimmerchat/amethyst/twitch/identity"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

type userData struct {
	ID          string    `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	ViewCount   int       `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type usersResponse struct {
	Data []userData `json:"data"`
}

// LookupUsernames resolves a batch of logins to account ids. Batches larger
// than the platform's per-request cap are split and fetched in parallel;
// the single delivery merges all chunks. Logins unknown to the platform are
// simply absent from the delivered map.
func (c *Client) LookupUsernames(names []syntax.Username, deliver func(map[syntax.Username]syntax.UserID, error)) {
	go func() {
		found, err := c.lookupAll(context.Background(), names)
		if err != nil {
			c.logger().Warn("username lookup failed", "names", len(names), "err", err)
			deliver(nil, err)
			return
		}
		deliver(found, nil)
	}()
}

func (c *Client) lookupAll(ctx context.Context, names []syntax.Username) (map[syntax.Username]syntax.UserID, error) {
	found := make(map[syntax.Username]syntax.UserID, len(names))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(names); start += maxLoginsPerRequest {
		end := start + maxLoginsPerRequest
		if end > len(names) {
			end = len(names)
		}
		chunk := names[start:end]
		g.Go(func() error {
			params := url.Values{}
			for _, name := range chunk {
				params.Add("login", name.Normalize().String())
			}
			var out usersResponse
			status, err := c.do(ctx, http.MethodGet, "users", c.apiURL("/users", params), "", nil, &out)
			if err != nil {
				return fmt.Errorf("looking up usernames: %w", err)
			}
			code := statusToCode(status)
			switch {
			case code.Ok():
				mu.Lock()
				for _, u := range out.Data {
					found[syntax.Username(u.Login).Normalize()] = syntax.UserID(u.ID)
				}
				mu.Unlock()
				return nil
			case code == model.ResultAccessDenied:
				return identity.ErrAccessDenied
			default:
				return fmt.Errorf("username lookup got status %d", status)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// resolveLogin maps a single login to its account id for endpoints keyed by
// broadcaster id.
func (c *Client) resolveLogin(ctx context.Context, login syntax.Username) (syntax.UserID, model.ResultCode) {
	params := url.Values{}
	params.Add("login", login.Normalize().String())
	var out usersResponse
	status, err := c.do(ctx, http.MethodGet, "users", c.apiURL("/users", params), "", nil, &out)
	if err != nil {
		c.logger().Warn("user lookup failed", "login", login, "err", err)
		return "", model.ResultFailed
	}
	if code := statusToCode(status); !code.Ok() {
		return "", code
	}
	if len(out.Data) == 0 {
		return "", model.ResultNotFound
	}
	return syntax.UserID(out.Data[0].ID), model.ResultSuccess
}

type validateResponse struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	Scopes    []string `json:"scopes"`
	UserID    string   `json:"user_id"`
	ExpiresIn int      `json:"expires_in"`
}

// VerifyToken checks the token against the auth host and reports the account
// it belongs to. A definitively rejected token delivers a TokenInfo with
// Valid false and a SUCCESS code: the verification itself got its answer.
func (c *Client) VerifyToken(token string, deliver func(*model.TokenInfo, model.ResultCode)) {
	go func() {
		info, code := c.validate(context.Background(), token)
		deliver(info, code)
	}()
}

func (c *Client) validate(ctx context.Context, token string) (*model.TokenInfo, model.ResultCode) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authHost()+"/oauth2/validate", nil)
	if err != nil {
		return nil, model.ResultFailed
	}
	// the auth host uses its own authorization scheme
	req.Header.Set("Authorization", "OAuth "+token)
	req.Header.Set("User-Agent", c.userAgent())

	if lim := c.Limiter; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, model.ResultFailed
		}
	}
	res, err := c.httpClient().Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("validate", "error").Inc()
		c.logger().Warn("token validation failed", "err", err)
		return nil, model.ResultFailed
	}
	defer res.Body.Close()
	requestsTotal.WithLabelValues("validate", strconv.Itoa(res.StatusCode)).Inc()

	if res.StatusCode == http.StatusUnauthorized {
		return &model.TokenInfo{Valid: false}, model.ResultSuccess
	}
	if res.StatusCode != http.StatusOK {
		return nil, statusToCode(res.StatusCode)
	}
	var out validateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, model.ResultFailed
	}
	info := &model.TokenInfo{
		Login:    syntax.Username(out.Login).Normalize(),
		UserID:   syntax.UserID(out.UserID),
		ClientID: out.ClientID,
		Scopes:   out.Scopes,
		Valid:    true,
	}
	c.setOwnID(info.UserID)
	return info, model.ResultSuccess
}

// ensureOwnID returns the token account's id, validating the token first if
// no verification has been seen yet.
func (c *Client) ensureOwnID(ctx context.Context, token string) (syntax.UserID, model.ResultCode) {
	if id := c.cachedOwnID(); id != "" {
		return id, model.ResultSuccess
	}
	info, code := c.validate(ctx, token)
	if !code.Ok() {
		return "", code
	}
	if info == nil || !info.Valid || info.UserID == "" {
		return "", model.ResultAccessDenied
	}
	return info.UserID, model.ResultSuccess
}
