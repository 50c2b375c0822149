package daktela

import (
	"errors"
	"strings"
)

// Connection is the immutable, validated configuration for one Daktela
// instance: a normalized base URL plus exactly one authentication mode,
// either a pre-issued access token or a username/password pair.
type Connection struct {
	url      string
	username string
	password string
	token    string
}

// NewConnection builds a Connection, normalizing the base URL and enforcing
// that exactly one authentication mode is supplied. Supplying both a token
// and a username/password pair is rejected: callers that hold both must
// choose before constructing (the credential resolver applies its documented
// precedence and never passes both).
func NewConnection(rawURL, username, password, token string) (Connection, error) {
	url := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if url == "" {
		return Connection{}, errors.New("daktela: base URL is required")
	}

	hasLogin := username != "" && password != ""
	hasToken := token != ""

	switch {
	case hasLogin && hasToken:
		return Connection{}, errors.New("daktela: both access token and username/password supplied; configure exactly one")
	case hasLogin:
		return Connection{url: url, username: username, password: password}, nil
	case hasToken:
		return Connection{url: url, token: token}, nil
	default:
		return Connection{}, errors.New("daktela: either an access token or a username/password pair is required")
	}
}

// URL returns the normalized base URL, trailing slash stripped.
func (c Connection) URL() string { return c.url }

// Username returns the configured login name, empty in token mode.
func (c Connection) Username() string { return c.username }

// Identity derives the cache-scoping key for this connection. Two
// connections with the same identity share cached reference data.
func (c Connection) Identity() string {
	credential := c.username
	if credential == "" {
		credential = c.token
	}
	return c.url + "|" + credential
}

// managed reports whether the session lifecycle (login, refresh, expiry)
// applies. A connection built from a pre-issued token is never managed.
func (c Connection) managed() bool {
	return c.username != "" && c.password != ""
}
