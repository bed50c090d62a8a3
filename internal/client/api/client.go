// Package api implements the HTTP client for the socialgraph server API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable indicates the server could not be reached or asked the
// client to retry later.
var ErrUnavailable = errors.New("server unavailable")

// ErrUnauthorized indicates the request was rejected for bad credentials
// or a missing/expired session.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound indicates the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError carries the rejection messages returned by the server
// for invalid input, in the order the server reported them.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Profile mirrors the server's profile payload.
type Profile struct {
	Username       string `json:"username"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	Following      bool   `json:"following"`
}

// ProfileCard mirrors one entry of a follower/following listing.
type ProfileCard struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type sessionPayload struct {
	Username     string `json:"username"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client talks to the socialgraph server over HTTP. It keeps the current
// token pair in memory and transparently refreshes the access token once
// when a request comes back 401.
//
// Client is not safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client

	accessToken  string
	refreshToken string
}

// NewClient returns a Client bound to the given base URL,
// e.g. "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// LoggedIn reports whether the client currently holds a session.
func (c *Client) LoggedIn() bool {
	return c.accessToken != ""
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/api/users", body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusCreated)
}

// Login authenticates and stores the returned token pair for use by
// subsequent requests. It returns the canonical username echoed by the
// server.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/api/sessions", body, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return "", err
	}

	var session sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("decoding session: %w", err)
	}
	c.accessToken = session.AccessToken
	c.refreshToken = session.RefreshToken
	return session.Username, nil
}

// Logout revokes the current refresh token on the server and drops the
// in-memory token pair regardless of the server's answer.
func (c *Client) Logout(ctx context.Context) error {
	body := map[string]string{"refresh_token": c.refreshToken}
	c.accessToken = ""
	c.refreshToken = ""

	resp, err := c.do(ctx, http.MethodDelete, "/api/sessions", body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusNoContent)
}

// Follow starts following the named user.
func (c *Client) Follow(ctx context.Context, username string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/follows/"+url.PathEscape(username), nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusCreated)
}

// Unfollow stops following the named user.
func (c *Client) Unfollow(ctx context.Context, username string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/follows/"+url.PathEscape(username), nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusNoContent)
}

// Profile fetches the named user's profile. When the client is logged in
// the payload reports whether the current user follows the profile owner.
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(username), nil, c.LoggedIn())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Followers lists the users following the named user.
func (c *Client) Followers(ctx context.Context, username string) ([]ProfileCard, error) {
	return c.listCards(ctx, "/api/profiles/"+url.PathEscape(username)+"/followers")
}

// Following lists the users the named user follows.
func (c *Client) Following(ctx context.Context, username string) ([]ProfileCard, error) {
	return c.listCards(ctx, "/api/profiles/"+url.PathEscape(username)+"/following")
}

func (c *Client) listCards(ctx context.Context, path string) ([]ProfileCard, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, c.LoggedIn())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var cards []ProfileCard
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	return cards, nil
}

// do sends one request, retrying once through the refresh endpoint when an
// authenticated request comes back 401 and a refresh token is on hand.
func (c *Client) do(ctx context.Context, method, path string, body any, withAuth bool) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body, withAuth)
	if err != nil {
		return nil, err
	}

	if withAuth && resp.StatusCode == http.StatusUnauthorized && c.refreshToken != "" {
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		return c.send(ctx, method, path, body, withAuth)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, withAuth bool) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) refresh(ctx context.Context) error {
	body := map[string]string{"refresh_token": c.refreshToken}
	resp, err := c.send(ctx, http.MethodPost, "/api/sessions/refresh", body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.accessToken = ""
		c.refreshToken = ""
		return ErrUnauthorized
	}

	var session sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("decoding session: %w", err)
	}
	c.accessToken = session.AccessToken
	c.refreshToken = session.RefreshToken
	return nil
}

// checkStatus converts a non-success response into a typed error. The body
// is consumed when the server attached a JSON error payload.
func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		var v struct {
			Errors []string `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&v); err == nil && len(v.Errors) > 0 {
			return &ValidationError{Messages: v.Errors}
		}
		return &ValidationError{Messages: []string{"invalid input"}}
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}

	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("server: %s", e.Error)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
