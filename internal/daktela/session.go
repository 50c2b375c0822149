package daktela

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	loginPath = "/api/v6/login.json"

	// The provider declares a nominal 3600-second token lifetime; the margin
	// keeps us from racing the expiry on in-flight requests.
	providerTokenTTL   = 3600 * time.Second
	expirySafetyMargin = 60 * time.Second
)

// session is the mutable authenticated state bound to one Connection. A
// zero expiresAt means the session is unmanaged: the token was supplied by
// the caller and no login or refresh is ever attempted.
type session struct {
	token        string
	refreshToken string
	expiresAt    time.Time
}

type loginResponse struct {
	Result struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"result"`
}

// EnsureSession makes the session usable for the next request: a no-op for
// pre-supplied tokens, an initial login when no token is held yet, and a
// refresh (or full re-login when no refresh token is held) once the expiry
// instant has passed.
func (c *Client) EnsureSession(ctx context.Context) error {
	if !c.conn.managed() {
		return nil
	}

	if c.session.token == "" {
		return c.login(ctx)
	}

	if !c.session.expiresAt.IsZero() && !c.now().Before(c.session.expiresAt) {
		log.Info().Str("url", c.conn.url).Msg("access token expired, renewing")
		if c.session.refreshToken != "" {
			return c.refresh(ctx)
		}
		return c.login(ctx)
	}

	return nil
}

// login submits the username/password pair to the provider. A response
// without an access token is a soft failure: it is logged and swallowed, and
// the caller discovers it when the next real operation fails with a 401.
// Transport-level login failures propagate as errors.
func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.conn.username,
		"password": c.conn.password,
	})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, c.conn.url+loginPath, body)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	// A malformed body leaves the token empty and lands in the soft-failure
	// path below, same as a well-formed body without a token.
	var decoded loginResponse
	_ = json.NewDecoder(resp.Body).Decode(&decoded)

	c.session.token = decoded.Result.AccessToken
	c.session.refreshToken = decoded.Result.RefreshToken
	c.session.expiresAt = c.now().Add(providerTokenTTL - expirySafetyMargin)

	if c.session.token == "" {
		log.Warn().
			Str("url", c.conn.url).
			Str("user", c.conn.username).
			Msg("login failed: no access token in response")
		return nil
	}

	log.Info().
		Str("url", c.conn.url).
		Str("user", c.conn.username).
		Msg("login successful")
	return nil
}

// refresh exchanges the held refresh token for a new access token. Any
// non-200 status falls back to a full re-login rather than failing.
func (c *Client) refresh(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"refreshToken": c.session.refreshToken,
	})
	if err != nil {
		return fmt.Errorf("encode refresh request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPut, c.conn.url+loginPath, body)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Info().
			Str("url", c.conn.url).
			Int("status", resp.StatusCode).
			Msg("token refresh failed, falling back to re-login")
		return c.login(ctx)
	}

	var decoded loginResponse
	_ = json.NewDecoder(resp.Body).Decode(&decoded)

	if decoded.Result.AccessToken != "" {
		c.session.token = decoded.Result.AccessToken
	}
	if decoded.Result.RefreshToken != "" {
		c.session.refreshToken = decoded.Result.RefreshToken
	}
	c.session.expiresAt = c.now().Add(providerTokenTTL - expirySafetyMargin)

	log.Info().Str("url", c.conn.url).Msg("token refreshed")
	return nil
}
