package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sorenh/gconnect/auth"
)

// User holds the saved login credentials. Stored in plaintext for convenience
// re-login, entirely separate from the token lifecycle.
type User struct {
	Email    string `gorm:"primaryKey" json:"email"`
	Password string `json:"password"`
}

// CredStore is the GORM-backed implementation of auth.CredentialStore.
type CredStore struct{ db *gorm.DB }

// NewCredStore creates a CredStore. Accepts *gorm.DB to avoid global access.
func NewCredStore(db *gorm.DB) *CredStore { return &CredStore{db: db} }

func (s *CredStore) Save(ctx context.Context, email, password string) error {
	if s.db == nil {
		return fmt.Errorf("credential store not initialized")
	}
	// One saved account at a time: replace whatever is there.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&User{}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&User{Email: email, Password: password}).Error; err != nil {
			return err
		}
		log.Info().Str("email", email).Msg("Credentials saved")
		return nil
	})
}

func (s *CredStore) Get(ctx context.Context) (*auth.SavedCredentials, error) {
	if s.db == nil {
		return nil, fmt.Errorf("credential store not initialized")
	}
	var user User
	err := s.db.WithContext(ctx).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.SavedCredentials{Email: user.Email, Password: user.Password}, nil
}

func (s *CredStore) Delete(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("credential store not initialized")
	}
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&User{}).Error
}
