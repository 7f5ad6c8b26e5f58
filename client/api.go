package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/auth"
)

// connectUserAgent identifies this client to the Garmin surfaces. The API
// rejects requests without a recognizable mobile-client identity.
const connectUserAgent = "com.garmin.android.apps.connectmobile"

// TokenProvider is the slice of the token manager the API client needs.
type TokenProvider interface {
	GetValidOAuth2Token(ctx context.Context, autoRefresh bool) (*auth.OAuth2Token, error)
}

// API issues authenticated requests against the Garmin Connect API. Every
// request first obtains a currently valid OAuth2 token from the provider,
// with auto-refresh enabled. A 401 is surfaced as-is: it means the token was
// rejected server-side (typically the OAuth1 credential finally expired), and
// re-exchanging would not help, so the caller decides whether to re-login.
type API struct {
	Domain string
	Tokens TokenProvider
	HTTP   *http.Client

	// BaseURL overrides the https://<subdomain>.<Domain> host pattern,
	// primarily for tests.
	BaseURL string
}

func (a *API) url(subdomain, path string) string {
	if a.BaseURL != "" {
		return a.BaseURL + path
	}
	return "https://" + subdomain + "." + a.Domain + path
}

func (a *API) httpClient() *http.Client {
	if a.HTTP != nil {
		return a.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// Do sends an authenticated request and returns the raw response. The caller
// owns the body. Non-2xx responses are closed and mapped to *HTTPError.
func (a *API) Do(ctx context.Context, method, subdomain, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	token, err := a.Tokens.GetValidOAuth2Token(ctx, true)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, a.url(subdomain, path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Authorization", token.TokenType+" "+token.AccessToken)
	req.Header.Set("User-Agent", connectUserAgent)
	req.Header.Set("NK", "NT")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug().Str("method", method).Str("url", req.URL.String()).Msg("Sending API request")
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}

// Request sends an authenticated request and returns the response body.
func (a *API) Request(ctx context.Context, method, subdomain, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	resp, err := a.Do(ctx, method, subdomain, path, body, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read API response body: %w", err)
	}
	return b, nil
}

// getJSON fetches path from the connectapi subdomain and decodes into out.
func (a *API) getJSON(ctx context.Context, path string, out any) error {
	body, err := a.Request(ctx, http.MethodGet, "connectapi", path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse API response for %s: %w", path, err)
	}
	return nil
}
