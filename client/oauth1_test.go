package client

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner() *Signer {
	return &Signer{
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		Nonce:          func() string { return "abc123" },
		Now:            func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestAuthHeader_ConsumerOnlyGolden(t *testing.T) {
	signer := fixedSigner()
	rawURL := "https://connectapi.garmin.com/oauth-service/oauth/preauthorized" +
		"?ticket=ticket-123&login-url=https%3A%2F%2Fsso.garmin.com%2Fsso%2Fembed&accepts-mfa-tokens=true"

	header, err := signer.AuthHeader("GET", rawURL, "", "", nil)

	require.NoError(t, err)
	assert.Equal(t, `OAuth oauth_consumer_key="consumer-key", oauth_nonce="abc123", `+
		`oauth_signature="oBNE%2F3%2BtPatdnKOE9lEncE8Jrn8%3D", oauth_signature_method="HMAC-SHA1", `+
		`oauth_timestamp="1700000000", oauth_version="1.0"`, header)
}

func TestAuthHeader_TokenAndBodyGolden(t *testing.T) {
	signer := fixedSigner()
	body := url.Values{"mfa_token": {"mfa-999"}}

	header, err := signer.AuthHeader("POST",
		"https://connectapi.garmin.com/oauth-service/oauth/exchange/user/2.0",
		"user-token", "user-secret", body)

	require.NoError(t, err)
	assert.Equal(t, `OAuth oauth_consumer_key="consumer-key", oauth_nonce="abc123", `+
		`oauth_signature="MFeGPfBECw%2Bri5tTzMl24qEWuv4%3D", oauth_signature_method="HMAC-SHA1", `+
		`oauth_timestamp="1700000000", oauth_token="user-token", oauth_version="1.0"`, header)
}

func TestAuthHeader_DeterministicForFixedInputs(t *testing.T) {
	signer := fixedSigner()
	rawURL := "https://connectapi.garmin.com/oauth-service/oauth/preauthorized?ticket=t"

	first, err := signer.AuthHeader("GET", rawURL, "tok", "sec", nil)
	require.NoError(t, err)
	second, err := signer.AuthHeader("GET", rawURL, "tok", "sec", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAuthHeader_OmitsTokenWhenEmpty(t *testing.T) {
	signer := fixedSigner()

	header, err := signer.AuthHeader("GET", "https://connectapi.garmin.com/x", "", "", nil)

	require.NoError(t, err)
	assert.NotContains(t, header, "oauth_token=")
}

func TestAuthHeader_RandomNoncesDiffer(t *testing.T) {
	signer := &Signer{ConsumerKey: "k", ConsumerSecret: "s"}

	first, err := signer.AuthHeader("GET", "https://connectapi.garmin.com/x", "", "", nil)
	require.NoError(t, err)
	second, err := signer.AuthHeader("GET", "https://connectapi.garmin.com/x", "", "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "abcXYZ019-._~", percentEncode("abcXYZ019-._~"))
	assert.Equal(t, "a%20b", percentEncode("a b"))
	assert.Equal(t, "%2B", percentEncode("+"))
	assert.Equal(t, "https%3A%2F%2Fsso.garmin.com%2Fsso%2Fembed", percentEncode("https://sso.garmin.com/sso/embed"))
	assert.Equal(t, "%E6%97%A5", percentEncode("日"))
}
