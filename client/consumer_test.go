package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBootstrapURL(t *testing.T, url string) {
	t.Helper()
	orig := ConsumerBootstrapURL
	ConsumerBootstrapURL = url
	resetConsumerCache()
	t.Cleanup(func() {
		ConsumerBootstrapURL = orig
		resetConsumerCache()
	})
}

func TestFetchConsumerCredentials(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_, _ = w.Write([]byte(`{"consumer_key": "ck", "consumer_secret": "cs"}`))
	}))
	defer server.Close()
	withBootstrapURL(t, server.URL)

	creds, err := FetchConsumerCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ck", creds.Key)
	assert.Equal(t, "cs", creds.Secret)

	again, err := FetchConsumerCredentials(context.Background())
	require.NoError(t, err)
	assert.Same(t, creds, again)
	assert.Equal(t, 1, fetches, "credentials are fetched at most once per process")
}

func TestFetchConsumerCredentials_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	withBootstrapURL(t, server.URL)

	_, err := FetchConsumerCredentials(context.Background())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestFetchConsumerCredentials_MissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"consumer_key": "ck"}`))
	}))
	defer server.Close()
	withBootstrapURL(t, server.URL)

	_, err := FetchConsumerCredentials(context.Background())
	assert.ErrorContains(t, err, "missing key or secret")
}
