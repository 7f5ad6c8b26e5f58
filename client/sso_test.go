package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ssoServer fakes the whole SSO and connectapi surface for one login attempt.
type ssoServer struct {
	*httptest.Server

	mu             sync.Mutex
	requireMFA     bool
	failTitle      string // when set, the credentials POST answers with this title
	omitCSRF       bool
	submittedUser  string
	submittedPass  string
	submittedCSRF  string
	signinReferer  string
	mfaCode        string
	mfaCSRF        string
	mfaFromPage    string
	preauthTicket  string
	preauthAuth    string
	exchangeCalled bool
}

const (
	testCSRF       = "csrf-token-1"
	testMFACSRF    = "csrf-token-2"
	testTicket     = "ST-0123456"
	successPage    = `<html><head><title>Success</title></head>` +
		`<body><a href="https://sso.garmin.com/sso/embed?ticket=` + testTicket + `"></a></body></html>`
	mfaChallengePage = `<html><head><title>MFA Required</title></head>` +
		`<body><input type="hidden" name="_csrf" value="` + testMFACSRF + `"></body></html>`
)

func newSSOServer() *ssoServer {
	s := &ssoServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/sso/embed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	})

	mux.HandleFunc("/sso/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if s.omitCSRF {
				w.Write([]byte(`<html><body>no form here</body></html>`))
				return
			}
			w.Write([]byte(`<html><body><input type="hidden" name="_csrf" value="` + testCSRF + `"></body></html>`))
			return
		}

		_ = r.ParseForm()
		s.mu.Lock()
		s.submittedUser = r.FormValue("username")
		s.submittedPass = r.FormValue("password")
		s.submittedCSRF = r.FormValue("_csrf")
		s.signinReferer = r.Header.Get("Referer")
		failTitle := s.failTitle
		requireMFA := s.requireMFA
		s.mu.Unlock()

		switch {
		case failTitle != "":
			w.Write([]byte(`<html><head><title>` + failTitle + `</title></head></html>`))
		case requireMFA:
			w.Write([]byte(mfaChallengePage))
		default:
			w.Write([]byte(successPage))
		}
	})

	mux.HandleFunc("/sso/verifyMFA/loginEnterMfaCode", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.mfaCode = r.FormValue("mfa-code")
		s.mfaCSRF = r.FormValue("_csrf")
		s.mfaFromPage = r.FormValue("fromPage")
		s.mu.Unlock()
		w.Write([]byte(successPage))
	})

	mux.HandleFunc("/oauth-service/oauth/preauthorized", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.preauthTicket = r.URL.Query().Get("ticket")
		s.preauthAuth = r.Header.Get("Authorization")
		s.mu.Unlock()
		w.Write([]byte("oauth_token=oauth1-token&oauth_token_secret=oauth1-secret"))
	})

	mux.HandleFunc("/oauth-service/oauth/exchange/user/2.0", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.exchangeCalled = true
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(exchangeResponse))
	})

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *ssoServer) loginOptions() LoginOptions {
	return LoginOptions{
		Domain:     "garmin.com",
		Email:      "diver@example.com",
		Password:   "hunter2",
		Consumer:   &ConsumerCredentials{Key: "ck", Secret: "cs"},
		SSOBaseURL: s.URL,
		APIBaseURL: s.URL,
	}
}

func TestLogin_Success(t *testing.T) {
	server := newSSOServer()
	defer server.Close()

	cred, token, err := Login(context.Background(), server.loginOptions())
	require.NoError(t, err)

	assert.Equal(t, "oauth1-token", cred.Token)
	assert.Equal(t, "oauth1-secret", cred.TokenSecret)
	assert.Equal(t, "garmin.com", cred.Domain)
	assert.Empty(t, cred.MFAToken)
	assert.Equal(t, "access-1", token.AccessToken)

	assert.Equal(t, "diver@example.com", server.submittedUser)
	assert.Equal(t, "hunter2", server.submittedPass)
	assert.Equal(t, testCSRF, server.submittedCSRF)
	assert.Equal(t, testTicket, server.preauthTicket)
	assert.True(t, strings.HasPrefix(server.preauthAuth, "OAuth "),
		"preauthorized call must be consumer-only OAuth1-signed")
	assert.NotContains(t, server.preauthAuth, "oauth_token=",
		"no user token exists yet at the preauthorized step")
	assert.True(t, server.exchangeCalled, "login must finish with the OAuth2 exchange")

	// The signin submission carries the signin page's final URL as Referer.
	assert.Contains(t, server.signinReferer, "/sso/signin")
}

func TestLogin_MFAChallenge(t *testing.T) {
	server := newSSOServer()
	defer server.Close()
	server.requireMFA = true

	opts := server.loginOptions()
	handlerCalls := 0
	opts.MFAHandler = func(ctx context.Context) (string, error) {
		handlerCalls++
		return "123456", nil
	}

	cred, token, err := Login(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, handlerCalls)
	assert.Equal(t, "123456", server.mfaCode, "the handler's exact code must be POSTed to the MFA endpoint")
	assert.Equal(t, testMFACSRF, server.mfaCSRF, "MFA submit uses the CSRF token from the credentials response")
	assert.Equal(t, "setupEnterMfaCode", server.mfaFromPage)
	assert.Equal(t, "oauth1-token", cred.Token)
	assert.Equal(t, "access-1", token.AccessToken)
}

func TestLogin_MFAWithoutHandler(t *testing.T) {
	server := newSSOServer()
	defer server.Close()
	server.requireMFA = true

	_, _, err := Login(context.Background(), server.loginOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no MFA handler")
}

func TestLogin_MFAHandlerError(t *testing.T) {
	server := newSSOServer()
	defer server.Close()
	server.requireMFA = true

	opts := server.loginOptions()
	opts.MFAHandler = func(ctx context.Context) (string, error) {
		return "", errors.New("user gave up")
	}

	_, _, err := Login(context.Background(), opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user gave up")
}

func TestLogin_UnexpectedTitle(t *testing.T) {
	server := newSSOServer()
	defer server.Close()
	server.failTitle = "Account Locked"

	_, _, err := Login(context.Background(), server.loginOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Account Locked")
}

func TestLogin_MissingCSRF(t *testing.T) {
	server := newSSOServer()
	defer server.Close()
	server.omitCSRF = true

	_, _, err := Login(context.Background(), server.loginOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSRF token not found")
}

func TestLogin_EmptyCredentials(t *testing.T) {
	_, _, err := Login(context.Background(), LoginOptions{Domain: "garmin.com"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestExtractPattern(t *testing.T) {
	title, err := extractPattern(titleRe, `<title>Success</title>`, "page title")
	require.NoError(t, err)
	assert.Equal(t, "Success", title)

	_, err = extractPattern(titleRe, `<h1>nope</h1>`, "page title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page title not found")
}
