// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/achtbit/zwart/internal/buildinfo"
	"github.com/achtbit/zwart/internal/metrics"
)

// torrents/stop and torrents/start replaced pause/resume in qBittorrent 5
// (WebAPI 2.11.0). Older daemons only know the pause spelling.
var stopMinVersion = semver.MustParse("2.11.0")

// Client relays requests to a single qBittorrent daemon. Authentication is
// lazy: no login happens until a request needs a session, and concurrent
// requests that find the session missing share one login flight. A request
// that comes back rejected (401, 403, or a redirect to the login page)
// re-authenticates and retries exactly once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	session    *SessionStore
	loginGroup singleflight.Group

	capsGroup           singleflight.Group
	capMu               sync.RWMutex
	capsProbed          bool
	webAPIVersion       string
	supportsTorrentStop bool

	collector *metrics.Collector
}

type Option func(*Client)

func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.collector = collector
	}
}

func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			// The daemon answers rejected sessions with a redirect to the
			// login page. We need to see that response, not follow it.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		session:  NewSessionStore(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login authenticates against the daemon with the configured credentials and
// stores the resulting session token. Concurrent callers are coalesced into a
// single upstream login.
func (c *Client) Login(ctx context.Context) error {
	_, err, _ := c.loginGroup.Do("login", func() (interface{}, error) {
		token, err := c.doLogin(ctx, c.username, c.password)
		if err != nil {
			c.session.Invalidate()
			return nil, err
		}

		c.session.Set(token)
		log.Debug().Msg("qbittorrent: session established")

		return nil, nil
	})
	return err
}

// CheckLogin validates a username/password pair against the daemon without
// touching the shared session. The throwaway session it creates is discarded.
func (c *Client) CheckLogin(ctx context.Context, username, password string) error {
	_, err := c.doLogin(ctx, username, password)
	return err
}

func (c *Client) doLogin(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("auth/login", "error")
		return "", errors.Wrap(err, "login request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", errors.Wrap(err, "read login response")
	}

	if resp.StatusCode != http.StatusOK {
		c.observe("auth/login", "rejected")
		return "", &AuthError{Reason: fmt.Sprintf("login rejected with status %d", resp.StatusCode)}
	}

	// A wrong password still returns 200, with "Fails." in the body.
	if strings.TrimSpace(string(body)) != "Ok." {
		c.observe("auth/login", "rejected")
		return "", &AuthError{Reason: "invalid credentials"}
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "SID" {
			c.observe("auth/login", "ok")
			return cookie.Value, nil
		}
	}

	c.observe("auth/login", "rejected")
	return "", &AuthError{Reason: "login response carried no session cookie"}
}

// Logout invalidates the upstream session and clears the local token. A
// failure upstream is logged but not fatal; the local session is cleared
// either way.
func (c *Client) Logout(ctx context.Context) {
	session, ok := c.session.Get()
	if ok {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/logout", nil)
		if err == nil {
			req.Header.Set("User-Agent", buildinfo.UserAgent)
			req.AddCookie(&http.Cookie{Name: "SID", Value: session.Token})
			if resp, err := c.httpClient.Do(req); err != nil {
				log.Debug().Err(err).Msg("qbittorrent: upstream logout failed")
			} else {
				resp.Body.Close()
			}
		}
	}

	c.session.Clear()
}

// ensureCapabilities probes the daemon's WebAPI version once per process,
// coalescing concurrent probes. It runs outside the login flight so a
// rejected probe can go through the normal relogin path.
func (c *Client) ensureCapabilities(ctx context.Context) error {
	c.capMu.RLock()
	probed := c.capsProbed
	c.capMu.RUnlock()
	if probed {
		return nil
	}

	_, err, _ := c.capsGroup.Do("caps", func() (interface{}, error) {
		return nil, c.refreshCapabilities(ctx)
	})
	return err
}

func (c *Client) refreshCapabilities(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/app/webapiVersion", nil)
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(string(body))
	version, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(err, "parse webapi version %q", raw)
	}

	c.capMu.Lock()
	c.capsProbed = true
	c.webAPIVersion = raw
	c.supportsTorrentStop = version.Compare(stopMinVersion) >= 0
	c.capMu.Unlock()

	log.Debug().Str("webapi_version", raw).Bool("torrent_stop", version.Compare(stopMinVersion) >= 0).Msg("qbittorrent: detected capabilities")
	return nil
}

func (c *Client) WebAPIVersion() string {
	c.capMu.RLock()
	defer c.capMu.RUnlock()
	return c.webAPIVersion
}

func (c *Client) stopEndpoint() string {
	c.capMu.RLock()
	defer c.capMu.RUnlock()
	if c.supportsTorrentStop {
		return "/api/v2/torrents/stop"
	}
	return "/api/v2/torrents/pause"
}

// sessionRejected reports whether the daemon refused the session token:
// an explicit 401/403, or a redirect back to the login page.
func sessionRejected(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return true
	}
	return false
}

// do performs an authenticated request. A missing session triggers a login
// first; a rejected session triggers one relogin and one retry. Any other
// upstream failure is returned as an UpstreamError without retrying.
func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	if _, ok := c.session.Get(); !ok {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	body, retry, err := c.send(ctx, method, endpoint, form)
	if !retry {
		return body, err
	}

	// Exactly one relogin and one retry for a rejected session.
	log.Debug().Str("endpoint", endpoint).Msg("qbittorrent: session rejected, re-authenticating")
	c.session.Invalidate()
	if c.collector != nil {
		c.collector.ObserveRelogin()
	}

	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	body, retry, err = c.send(ctx, method, endpoint, form)
	if retry {
		c.session.Invalidate()
		return nil, &AuthError{Reason: "session rejected immediately after login"}
	}
	return body, err
}

func (c *Client) send(ctx context.Context, method, endpoint string, form url.Values) (body []byte, rejected bool, err error) {
	session, ok := c.session.Get()
	if !ok {
		return nil, false, &AuthError{Reason: "no active session"}
	}

	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, false, errors.Wrapf(err, "build request for %s", endpoint)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.AddCookie(&http.Cookie{Name: "SID", Value: session.Token})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error")
		return nil, false, errors.Wrapf(err, "request to %s failed", endpoint)
	}
	defer resp.Body.Close()

	if sessionRejected(resp) {
		c.observe(endpoint, "rejected")
		return nil, true, nil
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "error")
		return nil, false, errors.Wrapf(err, "read response from %s", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "error")
		detail := strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, false, &UpstreamError{StatusCode: resp.StatusCode, Detail: detail}
	}

	c.observe(endpoint, "ok")
	return body, false, nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.collector == nil {
		return
	}
	// Label by path only; hashes in the query would blow up cardinality.
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	c.collector.ObserveUpstreamRequest(endpoint, outcome)
}

// Torrents returns the daemon's full torrent list.
func (c *Client) Torrents(ctx context.Context) ([]Torrent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/info", nil)
	if err != nil {
		return nil, err
	}

	var torrents []Torrent
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, errors.Wrap(err, "decode torrent list")
	}
	return torrents, nil
}

// TorrentByHash returns a single torrent, or ErrTorrentNotFound when the
// daemon does not know the hash.
func (c *Client) TorrentByHash(ctx context.Context, hash string) (*Torrent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/info?hashes="+url.QueryEscape(hash), nil)
	if err != nil {
		return nil, err
	}

	var torrents []Torrent
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, errors.Wrap(err, "decode torrent")
	}
	if len(torrents) == 0 {
		return nil, ErrTorrentNotFound
	}
	return &torrents[0], nil
}

// Files returns the content listing of a torrent.
func (c *Client) Files(ctx context.Context, hash string) ([]TorrentFile, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/files?hash="+url.QueryEscape(hash), nil)
	if err != nil {
		return nil, err
	}

	var files []TorrentFile
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, errors.Wrap(err, "decode torrent files")
	}
	return files, nil
}

// Properties returns the generic properties of a torrent, including its
// save path on the daemon host.
func (c *Client) Properties(ctx context.Context, hash string) (*TorrentProperties, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/properties?hash="+url.QueryEscape(hash), nil)
	if err != nil {
		return nil, err
	}

	var props TorrentProperties
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, errors.Wrap(err, "decode torrent properties")
	}
	return &props, nil
}

// Stop halts a torrent. Daemons running WebAPI 2.11.0 or later use the stop
// endpoint, older ones the pause spelling. The version probe must run before
// the endpoint is chosen, so it happens here, not at login.
func (c *Client) Stop(ctx context.Context, hash string) error {
	if err := c.ensureCapabilities(ctx); err != nil {
		log.Warn().Err(err).Msg("qbittorrent: could not determine WebAPI version, assuming pause endpoint")
	}

	form := url.Values{}
	form.Set("hashes", hash)

	_, err := c.do(ctx, http.MethodPost, c.stopEndpoint(), form)
	return err
}

// Delete removes a torrent from the daemon, optionally deleting its data.
func (c *Client) Delete(ctx context.Context, hash string, deleteFiles bool) error {
	form := url.Values{}
	form.Set("hashes", hash)
	form.Set("deleteFiles", fmt.Sprintf("%t", deleteFiles))

	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/delete", form)
	return err
}

// Categories returns the daemon's category table keyed by category id.
func (c *Client) Categories(ctx context.Context) (map[string]Category, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/categories", nil)
	if err != nil {
		return nil, err
	}

	var categories map[string]Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

// Ping checks that the daemon is reachable and the session usable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/v2/app/version", nil)
	return err
}
