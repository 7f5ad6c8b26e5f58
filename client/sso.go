package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/auth"
)

// The SSO pages are scraped with targeted patterns rather than a full HTML
// parser; each miss is a terminal failure for its step.
var (
	csrfRe   = regexp.MustCompile(`name="_csrf"\s+value="(.+?)"`)
	titleRe  = regexp.MustCompile(`<title>(.+?)</title>`)
	ticketRe = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
)

const (
	successTitle = "Success"
	mfaMarker    = "MFA"
)

// MFAHandler supplies a multi-factor code when the login flow hits an MFA
// challenge. The flow suspends until the handler returns; returning an error
// aborts the login.
type MFAHandler func(ctx context.Context) (string, error)

// LoginOptions configure a single SSO login attempt.
type LoginOptions struct {
	Domain     string // "garmin.com" or "garmin.cn"
	Email      string
	Password   string
	MFAHandler MFAHandler

	// Consumer overrides the credentials fetched from the well-known
	// bootstrap location.
	Consumer *ConsumerCredentials

	// SSOBaseURL and APIBaseURL override the per-domain hosts, primarily for
	// tests. When empty they are derived from Domain.
	SSOBaseURL string
	APIBaseURL string
}

func (o *LoginOptions) ssoBase() string {
	if o.SSOBaseURL != "" {
		return o.SSOBaseURL
	}
	return "https://sso." + o.Domain
}

func (o *LoginOptions) apiBase() string {
	if o.APIBaseURL != "" {
		return o.APIBaseURL
	}
	return "https://connectapi." + o.Domain
}

// Login drives the SSO flow from email/password (and optional MFA code) to an
// OAuth1 credential plus its first OAuth2 token. The HTTP session, including
// its cookie jar, lives only for this one attempt because the SSO steps are
// coupled through CSRF and session cookies. Nothing is persisted here; that
// is the caller's job after success.
func Login(ctx context.Context, opts LoginOptions) (*auth.OAuth1Credential, *auth.OAuth2Token, error) {
	if opts.Email == "" || opts.Password == "" {
		return nil, nil, fmt.Errorf("email and password cannot be empty")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	session := &http.Client{Jar: jar, Timeout: 60 * time.Second}

	ssoBase := opts.ssoBase() + "/sso"
	ssoEmbed := ssoBase + "/embed"

	embedParams := url.Values{
		"id":          {"gauth-widget"},
		"embedWidget": {"true"},
		"gauthHost":   {ssoBase},
	}
	signinParams := url.Values{
		"id":                              {"gauth-widget"},
		"embedWidget":                     {"true"},
		"gauthHost":                       {ssoEmbed},
		"service":                         {ssoEmbed},
		"source":                          {ssoEmbed},
		"redirectAfterAccountLoginUrl":    {ssoEmbed},
		"redirectAfterAccountCreationUrl": {ssoEmbed},
	}

	// Establish the SSO session cookies.
	if _, _, err := ssoGet(ctx, session, ssoEmbed+"?"+embedParams.Encode()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SSO session: %w", err)
	}

	// Fetch the signin page for its CSRF token; the page's final URL after
	// redirects becomes the Referer of the credential submission.
	signinURL := ssoBase + "/signin?" + signinParams.Encode()
	page, referer, err := ssoGet(ctx, session, signinURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch signin page: %w", err)
	}
	csrf, err := extractPattern(csrfRe, page, "CSRF token")
	if err != nil {
		return nil, nil, err
	}

	form := url.Values{
		"username": {opts.Email},
		"password": {opts.Password},
		"embed":    {"true"},
		"_csrf":    {csrf},
	}
	result, err := ssoPost(ctx, session, signinURL, form, referer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to submit credentials: %w", err)
	}
	title, err := extractPattern(titleRe, result, "page title")
	if err != nil {
		return nil, nil, err
	}

	if strings.Contains(title, mfaMarker) {
		result, err = completeMFA(ctx, session, opts, ssoBase, signinParams, result, referer)
		if err != nil {
			return nil, nil, err
		}
		title, err = extractPattern(titleRe, result, "page title")
		if err != nil {
			return nil, nil, err
		}
	}
	if title != successTitle {
		return nil, nil, fmt.Errorf("login failed with title %q", title)
	}

	ticket, err := extractPattern(ticketRe, result, "ticket")
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Msg("SSO ticket obtained")

	consumer := opts.Consumer
	if consumer == nil {
		consumer, err = FetchConsumerCredentials(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	cred, err := fetchOAuth1Credential(ctx, session, opts, *consumer, ssoEmbed, ticket)
	if err != nil {
		return nil, nil, err
	}

	exchanger := &Exchanger{Domain: opts.Domain, Consumer: *consumer, BaseURL: opts.APIBaseURL}
	token, err := exchanger.Exchange(ctx, cred)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("domain", cred.Domain).Msg("Login successful")
	return cred, token, nil
}

// completeMFA asks the caller for a code and submits it. The fresh CSRF token
// comes from the credentials-submission response, not the MFA page itself.
func completeMFA(ctx context.Context, session *http.Client, opts LoginOptions,
	ssoBase string, signinParams url.Values, submitPage, referer string) (string, error) {
	if opts.MFAHandler == nil {
		return "", fmt.Errorf("MFA code required but no MFA handler was provided")
	}

	code, err := opts.MFAHandler(ctx)
	if err != nil {
		return "", fmt.Errorf("MFA handler failed: %w", err)
	}
	csrf, err := extractPattern(csrfRe, submitPage, "CSRF token")
	if err != nil {
		return "", err
	}

	form := url.Values{
		"mfa-code": {code},
		"embed":    {"true"},
		"_csrf":    {csrf},
		"fromPage": {"setupEnterMfaCode"},
	}
	mfaURL := ssoBase + "/verifyMFA/loginEnterMfaCode?" + signinParams.Encode()
	result, err := ssoPost(ctx, session, mfaURL, form, referer)
	if err != nil {
		return "", fmt.Errorf("failed to submit MFA code: %w", err)
	}
	return result, nil
}

// fetchOAuth1Credential exchanges the one-time ticket for the long-lived
// OAuth1 credential via the consumer-only-signed preauthorized endpoint. The
// response body is a URL-encoded query string, not JSON.
func fetchOAuth1Credential(ctx context.Context, session *http.Client, opts LoginOptions,
	consumer ConsumerCredentials, ssoEmbed, ticket string) (*auth.OAuth1Credential, error) {
	query := url.Values{
		"ticket":             {ticket},
		"login-url":          {ssoEmbed},
		"accepts-mfa-tokens": {"true"},
	}
	preauthURL := opts.apiBase() + "/oauth-service/oauth/preauthorized?" + query.Encode()

	signer := &Signer{ConsumerKey: consumer.Key, ConsumerSecret: consumer.Secret}
	authHeader, err := signer.AuthHeader(http.MethodGet, preauthURL, "", "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sign preauthorized request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preauthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create preauthorized request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("User-Agent", connectUserAgent)

	resp, err := session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preauthorized request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read preauthorized response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("preauthorized request failed: %w",
			&HTTPError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse preauthorized response: %w", err)
	}
	cred := &auth.OAuth1Credential{
		Token:       values.Get("oauth_token"),
		TokenSecret: values.Get("oauth_token_secret"),
		MFAToken:    values.Get("mfa_token"),
		Domain:      opts.Domain,
	}
	if cred.Token == "" || cred.TokenSecret == "" {
		return nil, fmt.Errorf("preauthorized response is missing oauth_token or oauth_token_secret")
	}
	if ts := values.Get("mfa_expiration_timestamp"); ts != "" {
		cred.MFAExpiresAt = parseMFAExpiry(ts)
	}
	return cred, nil
}

// parseMFAExpiry tolerates the couple of timestamp shapes the service emits.
// A zero time is returned when none match; the MFA token is still usable.
func parseMFAExpiry(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.0", "2006-01-02 15:04:05.0"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	log.Warn().Str("timestamp", s).Msg("Unrecognized MFA expiration timestamp format")
	return time.Time{}
}

// extractPattern applies a single-capture regex to an HTML document.
func extractPattern(re *regexp.Regexp, body, what string) (string, error) {
	m := re.FindStringSubmatch(body)
	if len(m) < 2 {
		return "", fmt.Errorf("%s not found in response", what)
	}
	return m[1], nil
}

func ssoGet(ctx context.Context, session *http.Client, rawURL string) (body, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", connectUserAgent)

	resp, err := session.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return string(b), resp.Request.URL.String(), nil
}

func ssoPost(ctx context.Context, session *http.Client, rawURL string, form url.Values, referer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", connectUserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := session.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return string(b), nil
}
