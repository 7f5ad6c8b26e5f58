package auth

import "context"

// TokenStorage is the durable backing store for both token kinds. Each call
// must be atomic; the Manager keeps the only in-memory cache, so
// implementations should not cache on their own.
type TokenStorage interface {
	SaveOAuth1(ctx context.Context, cred *OAuth1Credential) error
	GetOAuth1(ctx context.Context) (*OAuth1Credential, error)
	DeleteOAuth1(ctx context.Context) error

	SaveOAuth2(ctx context.Context, token *OAuth2Token) error
	GetOAuth2(ctx context.Context) (*OAuth2Token, error)
	DeleteOAuth2(ctx context.Context) error

	SaveBoth(ctx context.Context, cred *OAuth1Credential, token *OAuth2Token) error
	GetBoth(ctx context.Context) (*OAuth1Credential, *OAuth2Token, error)
	DeleteAll(ctx context.Context) error
}

// SavedCredentials is the username/password pair cached for convenience
// re-login. Its lifecycle is entirely separate from the tokens.
type SavedCredentials struct {
	Email    string
	Password string
}

// CredentialStore persists saved login credentials. Get returns nil when no
// credentials are stored.
type CredentialStore interface {
	Save(ctx context.Context, email, password string) error
	Get(ctx context.Context) (*SavedCredentials, error)
	Delete(ctx context.Context) error
}

// TokenExchanger turns a long-lived OAuth1 credential into a fresh OAuth2
// token. Implemented by client.Exchanger; injectable so the Manager can be
// tested without touching the network.
type TokenExchanger interface {
	Exchange(ctx context.Context, cred *OAuth1Credential) (*OAuth2Token, error)
}
