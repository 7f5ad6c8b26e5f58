package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sorenh/gconnect/auth"
)

// OAuth1Record is the stored form of the long-lived OAuth1 credential. A
// single row with ID 1 holds the credential for the one account this tool
// manages. Timestamps are stored as RFC 3339 strings with nanoseconds.
type OAuth1Record struct {
	ID           uint   `gorm:"primaryKey"`
	Token        string `json:"oauth_token"`
	TokenSecret  string `json:"oauth_token_secret"`
	MFAToken     string `gorm:"column:mfa_token" json:"mfa_token,omitempty"`
	MFAExpiresAt string `gorm:"column:mfa_expires_at" json:"mfa_expires_at,omitempty"`
	Domain       string `json:"domain"`
}

// OAuth2Record is the stored form of the short-lived OAuth2 token, same
// single-row scheme as OAuth1Record.
type OAuth2Record struct {
	ID                    uint   `gorm:"primaryKey"`
	Scope                 string `json:"scope"`
	JTI                   string `gorm:"column:jti" json:"jti"`
	TokenType             string `json:"token_type"`
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	ExpiresAt             string `json:"expires_at"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Credential converts the stored record back to the domain type.
func (r *OAuth1Record) Credential() (*auth.OAuth1Credential, error) {
	mfaExpires, err := parseTime(r.MFAExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("invalid MFA expiration time in stored OAuth1 token: %w", err)
	}
	return &auth.OAuth1Credential{
		Token:        r.Token,
		TokenSecret:  r.TokenSecret,
		MFAToken:     r.MFAToken,
		MFAExpiresAt: mfaExpires,
		Domain:       r.Domain,
	}, nil
}

// Token converts the stored record back to the domain type.
func (r *OAuth2Record) Token() (*auth.OAuth2Token, error) {
	expiresAt, err := parseTime(r.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration time in stored OAuth2 token: %w", err)
	}
	refreshExpiresAt, err := parseTime(r.RefreshTokenExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh expiration time in stored OAuth2 token: %w", err)
	}
	return &auth.OAuth2Token{
		Scope:                 r.Scope,
		JTI:                   r.JTI,
		TokenType:             r.TokenType,
		AccessToken:           r.AccessToken,
		RefreshToken:          r.RefreshToken,
		ExpiresIn:             r.ExpiresIn,
		ExpiresAt:             expiresAt,
		RefreshTokenExpiresIn: r.RefreshTokenExpiresIn,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func newOAuth1Record(cred *auth.OAuth1Credential) *OAuth1Record {
	return &OAuth1Record{
		ID:           1,
		Token:        cred.Token,
		TokenSecret:  cred.TokenSecret,
		MFAToken:     cred.MFAToken,
		MFAExpiresAt: formatTime(cred.MFAExpiresAt),
		Domain:       cred.Domain,
	}
}

func newOAuth2Record(token *auth.OAuth2Token) *OAuth2Record {
	return &OAuth2Record{
		ID:                    1,
		Scope:                 token.Scope,
		JTI:                   token.JTI,
		TokenType:             token.TokenType,
		AccessToken:           token.AccessToken,
		RefreshToken:          token.RefreshToken,
		ExpiresIn:             token.ExpiresIn,
		ExpiresAt:             formatTime(token.ExpiresAt),
		RefreshTokenExpiresIn: token.RefreshTokenExpiresIn,
		RefreshTokenExpiresAt: formatTime(token.RefreshTokenExpiresAt),
	}
}

// TokenStore is the GORM-backed implementation of auth.TokenStorage. It keeps
// no cache of its own; the token manager is the only caching layer.
type TokenStore struct{ db *gorm.DB }

// NewTokenStore creates a TokenStore. Accepts *gorm.DB to avoid global access.
func NewTokenStore(db *gorm.DB) *TokenStore { return &TokenStore{db: db} }

func (s *TokenStore) SaveOAuth1(ctx context.Context, cred *auth.OAuth1Credential) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	if cred == nil {
		return fmt.Errorf("cannot save a nil OAuth1 token")
	}
	return upsertOAuth1(s.db.WithContext(ctx), cred)
}

func (s *TokenStore) GetOAuth1(ctx context.Context) (*auth.OAuth1Credential, error) {
	if s.db == nil {
		return nil, fmt.Errorf("token store not initialized")
	}
	return getOAuth1(s.db.WithContext(ctx))
}

func (s *TokenStore) DeleteOAuth1(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	return s.db.WithContext(ctx).Where("id = ?", 1).Delete(&OAuth1Record{}).Error
}

func (s *TokenStore) SaveOAuth2(ctx context.Context, token *auth.OAuth2Token) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	if token == nil {
		return fmt.Errorf("cannot save a nil OAuth2 token")
	}
	return upsertOAuth2(s.db.WithContext(ctx), token)
}

func (s *TokenStore) GetOAuth2(ctx context.Context) (*auth.OAuth2Token, error) {
	if s.db == nil {
		return nil, fmt.Errorf("token store not initialized")
	}
	return getOAuth2(s.db.WithContext(ctx))
}

func (s *TokenStore) DeleteOAuth2(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	return s.db.WithContext(ctx).Where("id = ?", 1).Delete(&OAuth2Record{}).Error
}

// SaveBoth writes both tokens in one transaction so a concurrent reader never
// sees a half-updated pair.
func (s *TokenStore) SaveBoth(ctx context.Context, cred *auth.OAuth1Credential, token *auth.OAuth2Token) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	if cred == nil || token == nil {
		return fmt.Errorf("cannot save nil tokens")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertOAuth1(tx, cred); err != nil {
			return err
		}
		return upsertOAuth2(tx, token)
	})
}

// GetBoth reads both tokens in one transaction so a SaveBoth committing in
// between cannot hand back a mismatched pair.
func (s *TokenStore) GetBoth(ctx context.Context) (*auth.OAuth1Credential, *auth.OAuth2Token, error) {
	if s.db == nil {
		return nil, nil, fmt.Errorf("token store not initialized")
	}
	var cred *auth.OAuth1Credential
	var token *auth.OAuth2Token
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cred, err = getOAuth1(tx); err != nil {
			return err
		}
		token, err = getOAuth2(tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return cred, token, nil
}

// DeleteAll removes both tokens in one transaction.
func (s *TokenStore) DeleteAll(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("token store not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", 1).Delete(&OAuth1Record{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", 1).Delete(&OAuth2Record{}).Error
	})
}

func getOAuth1(tx *gorm.DB) (*auth.OAuth1Credential, error) {
	var record OAuth1Record
	err := tx.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.Credential()
}

func getOAuth2(tx *gorm.DB) (*auth.OAuth2Token, error) {
	var record OAuth2Record
	err := tx.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.Token()
}

func upsertOAuth1(tx *gorm.DB, cred *auth.OAuth1Credential) error {
	record := newOAuth1Record(cred)
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "token_secret", "mfa_token", "mfa_expires_at", "domain"}),
	}).Create(record).Error
}

func upsertOAuth2(tx *gorm.DB, token *auth.OAuth2Token) error {
	record := newOAuth2Record(token)
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"scope", "jti", "token_type", "access_token", "refresh_token",
			"expires_in", "expires_at", "refresh_token_expires_in", "refresh_token_expires_at",
		}),
	}).Create(record).Error
}
