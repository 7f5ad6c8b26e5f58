package auth

import "time"

// OAuth1Credential is the long-lived signing credential obtained through the
// SSO login flow. It is valid for roughly a year and is only ever used to
// mint short-lived OAuth2 tokens; server-side expiry shows up as an HTTP 401
// on the exchange call, never as a client-side check.
type OAuth1Credential struct {
	Token        string    `json:"oauth_token"`
	TokenSecret  string    `json:"oauth_token_secret"`
	MFAToken     string    `json:"mfa_token,omitempty"`
	MFAExpiresAt time.Time `json:"mfa_expires_at,omitempty"`
	Domain       string    `json:"domain"`
}

// OAuth2Token is the short-lived bearer token that authorizes API calls.
// ExpiresAt and RefreshTokenExpiresAt are absolute instants stamped once when
// the token is minted; the relative *_in fields are never consulted again
// after that.
type OAuth2Token struct {
	Scope                 string    `json:"scope"`
	JTI                   string    `json:"jti"`
	TokenType             string    `json:"token_type"`
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	ExpiresIn             int64     `json:"expires_in"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshTokenExpiresIn int64     `json:"refresh_token_expires_in"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// IsExpired reports whether the access token has reached its expiry instant.
func (t *OAuth2Token) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsRefreshExpired reports whether the refresh token window has closed. The
// refresh token is tracked for completeness but never used to refresh; see
// Manager.RefreshOAuth2Token.
func (t *OAuth2Token) IsRefreshExpired() bool {
	return !time.Now().Before(t.RefreshTokenExpiresAt)
}

// ExpiresWithin reports whether the access token expires within d from now.
func (t *OAuth2Token) ExpiresWithin(d time.Duration) bool {
	return !time.Now().Add(d).Before(t.ExpiresAt)
}
