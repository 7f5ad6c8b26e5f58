package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRefreshBuffer is the margin before actual expiry at which a token is
// refreshed proactively.
const DefaultRefreshBuffer = 60 * time.Second

// Manager owns the in-memory cache of both tokens and is the only component
// allowed to mutate it. All mutable state is guarded by mu; network calls
// always happen outside the lock. Tokens are loaded from storage at most once
// per process, on first use.
type Manager struct {
	mu            sync.Mutex
	oauth1        *OAuth1Credential
	oauth2        *OAuth2Token
	loaded        bool
	inflight      *refreshCall
	refreshBuffer time.Duration

	storage   TokenStorage
	exchanger TokenExchanger
}

// refreshCall is the single in-flight exchange shared by every concurrent
// refresher. done is closed exactly once, after token and err are set.
type refreshCall struct {
	done  chan struct{}
	token *OAuth2Token
	err   error
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithRefreshBuffer overrides the proactive refresh margin.
func WithRefreshBuffer(d time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshBuffer = d }
}

// NewManager builds a Manager. storage may be nil for a memory-only manager;
// exchanger may be nil if refresh is never needed (both are checked at the
// point of use, not here).
func NewManager(storage TokenStorage, exchanger TokenExchanger, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:       storage,
		exchanger:     exchanger,
		refreshBuffer: DefaultRefreshBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ensureLoadedLocked falls back to storage exactly once per process lifetime.
// Callers must hold m.mu.
func (m *Manager) ensureLoadedLocked(ctx context.Context) error {
	if m.loaded {
		return nil
	}
	if m.storage != nil {
		cred, token, err := m.storage.GetBoth(ctx)
		if err != nil {
			return fmt.Errorf("failed to load tokens from storage: %w", err)
		}
		m.oauth1 = cred
		m.oauth2 = token
	}
	m.loaded = true
	return nil
}

// GetValidOAuth2Token returns a token that is valid right now. When
// autoRefresh is enabled a missing or expiring token is refreshed through the
// OAuth1 credential; when disabled, a token inside the refresh buffer but not
// yet expired is still returned, and only a missing or truly expired token is
// an error.
func (m *Manager) GetValidOAuth2Token(ctx context.Context, autoRefresh bool) (*OAuth2Token, error) {
	m.mu.Lock()
	if err := m.ensureLoadedLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	token := m.oauth2
	m.mu.Unlock()

	if token == nil {
		if !autoRefresh {
			return nil, ErrNoOAuth2Token
		}
		return m.RefreshOAuth2Token(ctx)
	}

	if token.ExpiresWithin(m.refreshBuffer) {
		if autoRefresh {
			return m.RefreshOAuth2Token(ctx)
		}
		if token.IsExpired() {
			return nil, fmt.Errorf("OAuth2 token expired at %s and auto-refresh is disabled",
				token.ExpiresAt.Format(time.RFC3339))
		}
	}
	return token, nil
}

// RefreshOAuth2Token exchanges the cached OAuth1 credential for a fresh
// OAuth2 token. Refreshes are single-flight: while one exchange is
// outstanding, every concurrent caller waits for and receives its exact
// outcome instead of starting a second network call.
func (m *Manager) RefreshOAuth2Token(ctx context.Context) (*OAuth2Token, error) {
	m.mu.Lock()
	if err := m.ensureLoadedLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		return awaitRefresh(ctx, call)
	}
	if m.oauth1 == nil {
		m.mu.Unlock()
		return nil, ErrNoOAuth1Token
	}
	if m.exchanger == nil {
		m.mu.Unlock()
		return nil, ErrNoExchanger
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	cred := m.oauth1
	m.mu.Unlock()

	token, err := m.exchanger.Exchange(ctx, cred)
	if err == nil && m.storage != nil {
		if serr := m.storage.SaveOAuth2(ctx, token); serr != nil {
			token = nil
			err = fmt.Errorf("failed to persist refreshed OAuth2 token: %w", serr)
		}
	}

	m.mu.Lock()
	m.inflight = nil
	if err == nil {
		m.oauth2 = token
	}
	m.mu.Unlock()

	call.token, call.err = token, err
	close(call.done)

	if err != nil {
		return nil, err
	}
	log.Debug().Time("expires_at", token.ExpiresAt).Msg("OAuth2 token refreshed")
	return token, nil
}

// awaitRefresh blocks until the shared exchange completes or the waiter's own
// context is cancelled. A cancelled waiter does not abort the exchange for
// the others.
func awaitRefresh(ctx context.Context, call *refreshCall) (*OAuth2Token, error) {
	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SaveTokens persists both tokens write-through: storage first, then the
// cache, so a failed write never leaves the two out of sync.
func (m *Manager) SaveTokens(ctx context.Context, cred *OAuth1Credential, token *OAuth2Token) error {
	if m.storage != nil {
		if err := m.storage.SaveBoth(ctx, cred, token); err != nil {
			return fmt.Errorf("failed to save tokens: %w", err)
		}
	}
	m.mu.Lock()
	m.oauth1 = cred
	m.oauth2 = token
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// SaveOAuth1Token persists the long-lived credential write-through.
func (m *Manager) SaveOAuth1Token(ctx context.Context, cred *OAuth1Credential) error {
	if m.storage != nil {
		if err := m.storage.SaveOAuth1(ctx, cred); err != nil {
			return fmt.Errorf("failed to save OAuth1 token: %w", err)
		}
	}
	m.mu.Lock()
	m.oauth1 = cred
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// SaveOAuth2Token persists the short-lived token write-through.
func (m *Manager) SaveOAuth2Token(ctx context.Context, token *OAuth2Token) error {
	if m.storage != nil {
		if err := m.storage.SaveOAuth2(ctx, token); err != nil {
			return fmt.Errorf("failed to save OAuth2 token: %w", err)
		}
	}
	m.mu.Lock()
	m.oauth2 = token
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// ClearTokens removes every token from storage and cache and resets the
// loaded flag, so the next read goes back to storage.
func (m *Manager) ClearTokens(ctx context.Context) error {
	if m.storage != nil {
		if err := m.storage.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}
	}
	m.mu.Lock()
	m.oauth1 = nil
	m.oauth2 = nil
	m.loaded = false
	m.mu.Unlock()
	log.Info().Msg("Tokens cleared")
	return nil
}

// GetTokenStatus builds a snapshot of the cache, loading from storage first
// if needed. OAuth2Expired defaults to true when no OAuth2 token is cached.
func (m *Manager) GetTokenStatus(ctx context.Context) (TokenStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoadedLocked(ctx); err != nil {
		return TokenStatus{}, err
	}

	status := TokenStatus{
		HasOAuth1:     m.oauth1 != nil,
		HasOAuth2:     m.oauth2 != nil,
		OAuth2Expired: true,
	}
	if m.oauth1 != nil {
		status.Domain = m.oauth1.Domain
	}
	if m.oauth2 != nil {
		status.OAuth2Expired = m.oauth2.IsExpired()
		status.ExpiresAt = m.oauth2.ExpiresAt
	}
	return status, nil
}
