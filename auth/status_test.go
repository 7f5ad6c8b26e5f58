package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sorenh/gconnect/auth"
)

func TestTokenStatus_State(t *testing.T) {
	tests := []struct {
		name   string
		status auth.TokenStatus
		want   auth.TokenState
	}{
		{
			"both tokens valid",
			auth.TokenStatus{HasOAuth1: true, HasOAuth2: true, OAuth2Expired: false},
			auth.StateAuthenticated,
		},
		{
			"oauth2 expired",
			auth.TokenStatus{HasOAuth1: true, HasOAuth2: true, OAuth2Expired: true},
			auth.StateNeedsRefresh,
		},
		{
			"oauth2 missing",
			auth.TokenStatus{HasOAuth1: true, HasOAuth2: false, OAuth2Expired: true},
			auth.StateNeedsRefresh,
		},
		{
			"no oauth1",
			auth.TokenStatus{HasOAuth1: false, HasOAuth2: true, OAuth2Expired: false},
			auth.StateNeedsReauthentication,
		},
		{
			"nothing at all",
			auth.TokenStatus{},
			auth.StateNeedsReauthentication,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.State())
			// Deriving twice must agree with itself.
			assert.Equal(t, tt.status.State(), tt.status.State())
		})
	}
}
