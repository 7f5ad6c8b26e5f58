package auth

import "errors"

var (
	// ErrNoOAuth1Token means no long-lived credential is cached or stored.
	// Only a full SSO login can recover from this.
	ErrNoOAuth1Token = errors.New("no OAuth1 token found; please login first")

	// ErrNoOAuth2Token means no short-lived token exists and auto-refresh was
	// disabled by the caller.
	ErrNoOAuth2Token = errors.New("no OAuth2 token found")

	// ErrNoExchanger means the Manager was built without a TokenExchanger but
	// a refresh was requested.
	ErrNoExchanger = errors.New("token exchanger is not configured")
)
