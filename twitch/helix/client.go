// Package helix is the reference request dispatcher: it implements the
// api.Dispatcher contract over the platform's Helix-flavored HTTP API. Every
// operation returns immediately, runs its network round-trips on its own
// goroutine, and invokes its callback exactly once.
package helix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"

	"github.com/glimmerchat/amethyst/twitch/api"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
	"github.com/glimmerchat/amethyst/util"
)

const (
	DefaultHost     = "https://api.twitch.tv/helix"
	DefaultAuthHost = "https://id.twitch.tv"

	// maxLoginsPerRequest is the platform's cap on logins per user lookup.
	maxLoginsPerRequest = 100
)

// Client talks to the platform API. The zero value works with defaults for
// everything but ClientID; NewClient fills in production settings including
// outbound rate pacing.
type Client struct {
	Host       string
	AuthHost   string
	ClientID   string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	UserAgent  *string
	Logger     *slog.Logger

	// Token is the fallback credential for public-data reads; the
	// platform requires identification on every call. Per-operation
	// tokens passed through the dispatcher contract take precedence.
	Token string

	// mu guards ownID, the token account's id learned from the most
	// recent successful verification. Some endpoints key on it.
	mu    sync.Mutex
	ownID syntax.UserID
}

var _ api.Dispatcher = (*Client)(nil)

// NewClient returns a Client with production defaults. The pacing keeps a
// busy client inside the platform's request budget.
func NewClient(clientID string) *Client {
	return &Client{
		Host:       DefaultHost,
		AuthHost:   DefaultAuthHost,
		ClientID:   clientID,
		HTTPClient: util.RobustHTTPClient(),
		Limiter:    rate.NewLimiter(rate.Limit(12), 24),
	}
}

func (c *Client) host() string {
	if c.Host == "" {
		return DefaultHost
	}
	return c.Host
}

func (c *Client) authHost() string {
	if c.AuthHost == "" {
		return DefaultAuthHost
	}
	return c.AuthHost
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return util.RobustHTTPClient()
	}
	return c.HTTPClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default().With("component", "helix")
	}
	return c.Logger
}

func (c *Client) userAgent() string {
	if c.UserAgent != nil {
		return *c.UserAgent
	}
	return "amethyst/" + versioninfo.Short()
}

func (c *Client) setOwnID(id syntax.UserID) {
	c.mu.Lock()
	c.ownID = id
	c.mu.Unlock()
}

func (c *Client) cachedOwnID() syntax.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownID
}

// apiURL joins a path onto the API host. params may be nil.
func (c *Client) apiURL(path string, params url.Values) string {
	u := c.host() + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// do runs one HTTP round-trip: pacing, auth and identification headers, JSON
// body in, JSON body out. It returns the status code; out is only decoded on
// 2xx. endpoint is the metrics label, not the path.
func (c *Client) do(ctx context.Context, method, endpoint, u, token string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" {
		token = c.Token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.ClientID != "" {
		req.Header.Set("Client-Id", c.ClientID)
	}
	req.Header.Set("User-Agent", c.userAgent())

	if lim := c.Limiter; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return 0, err
		}
	}

	res, err := c.httpClient().Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return 0, err
	}
	defer res.Body.Close()
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(res.StatusCode)).Inc()

	if res.StatusCode >= 200 && res.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("decoding response body: %w", err)
		}
	}
	return res.StatusCode, nil
}

// statusToCode maps an HTTP status onto the shared result taxonomy.
func statusToCode(status int) model.ResultCode {
	switch {
	case status >= 200 && status < 300:
		return model.ResultSuccess
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return model.ResultAccessDenied
	case status == http.StatusNotFound:
		return model.ResultNotFound
	default:
		return model.ResultFailed
	}
}
