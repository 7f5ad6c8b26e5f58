package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/auth"
)

// Exchanger trades a long-lived OAuth1 credential for a fresh OAuth2 token
// through the signed exchange endpoint. It is stateless aside from its
// configuration and implements auth.TokenExchanger. A zero Consumer falls
// back to the well-known bootstrap credentials.
type Exchanger struct {
	Domain   string
	Consumer ConsumerCredentials
	HTTP     *http.Client

	// BaseURL overrides the connectapi host, primarily for tests. When empty
	// it is derived from Domain.
	BaseURL string
}

func (e *Exchanger) baseURL() string {
	if e.BaseURL != "" {
		return e.BaseURL
	}
	return "https://connectapi." + e.Domain
}

func (e *Exchanger) httpClient() *http.Client {
	if e.HTTP != nil {
		return e.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Exchange performs the signed POST and stamps the absolute expiry instants
// on the returned token at completion time.
func (e *Exchanger) Exchange(ctx context.Context, cred *auth.OAuth1Credential) (*auth.OAuth2Token, error) {
	if cred == nil {
		return nil, auth.ErrNoOAuth1Token
	}

	consumer := e.Consumer
	if consumer.Key == "" {
		fetched, err := FetchConsumerCredentials(ctx)
		if err != nil {
			return nil, err
		}
		consumer = *fetched
	}

	exchangeURL := e.baseURL() + "/oauth-service/oauth/exchange/user/2.0"
	body := url.Values{}
	if cred.MFAToken != "" {
		body.Set("mfa_token", cred.MFAToken)
	}

	signer := &Signer{ConsumerKey: consumer.Key, ConsumerSecret: consumer.Secret}
	authHeader, err := signer.AuthHeader(http.MethodPost, exchangeURL, cred.Token, cred.TokenSecret, body)
	if err != nil {
		return nil, fmt.Errorf("failed to sign exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exchangeURL, strings.NewReader(body.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", connectUserAgent)

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed: %w",
			&HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	var token auth.OAuth2Token
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("failed to parse exchange response: %w", err)
	}

	now := time.Now()
	token.ExpiresAt = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	token.RefreshTokenExpiresAt = now.Add(time.Duration(token.RefreshTokenExpiresIn) * time.Second)

	log.Debug().Str("scope", token.Scope).Time("expires_at", token.ExpiresAt).Msg("OAuth2 token exchanged")
	return &token, nil
}
