package auth

import "time"

// TokenState summarizes what, if anything, the user must do to get a working
// session.
type TokenState string

const (
	// StateAuthenticated means both tokens are present and the OAuth2 token
	// has not expired.
	StateAuthenticated TokenState = "authenticated"
	// StateNeedsRefresh means the OAuth2 token is missing or expired but an
	// OAuth1 credential exists, so a refresh will succeed without user input.
	StateNeedsRefresh TokenState = "needs_refresh"
	// StateNeedsReauthentication means the OAuth1 credential is absent; only
	// a full SSO login can recover from this.
	StateNeedsReauthentication TokenState = "needs_reauthentication"
)

// TokenStatus is a point-in-time snapshot of the token cache. It is derived,
// never stored.
type TokenStatus struct {
	HasOAuth1     bool
	HasOAuth2     bool
	OAuth2Expired bool
	ExpiresAt     time.Time
	Domain        string
}

// State derives the user-facing state from the snapshot booleans.
func (s TokenStatus) State() TokenState {
	switch {
	case !s.HasOAuth1:
		return StateNeedsReauthentication
	case s.HasOAuth2 && !s.OAuth2Expired:
		return StateAuthenticated
	default:
		return StateNeedsRefresh
	}
}
